// Command bot plays the game without a human: it queues one client per
// requested seat and walks each greedily toward the nearest unselected card
// until the match ends. Useful for smoke-testing a server and for producing
// game records to analyze.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hexcoop/hexcoop/client"
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
	"github.com/hexcoop/hexcoop/logger"
)

var (
	serverURL = flag.String("server", "ws://localhost:8080/player_endpoint", "Game server WebSocket URL")
	seats     = flag.Int("seats", 2, "How many players to field (2 = self-play)")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	log, err := logger.Init(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var g errgroup.Group
	for i := 0; i < *seats; i++ {
		g.Go(func() error {
			c := client.NewClient(*serverURL, log)
			if err := c.Connect(); err != nil {
				return err
			}
			defer c.Close()

			game, err := c.JoinGame(client.QueueAny, 0)
			if err != nil {
				return err
			}
			return playGame(game)
		})
	}
	if err := g.Wait(); err != nil {
		log.Sugar().Fatalf("bot run failed: %v", err)
	}
	log.Info("all games finished")
}

// playGame loops turns until the match ends.
func playGame(g *client.Game) error {
	for !g.Over() {
		if err := g.WaitForTurn(); err != nil {
			return err
		}
		if g.Over() {
			break
		}
		if err := playTurn(g); err != nil {
			return err
		}
	}
	return nil
}

// playTurn spends the turn's move budget walking toward cards, then ends the
// turn. The leader narrates its target first; the follower reports done on
// the oldest open instruction before yielding.
func playTurn(g *client.Game) error {
	if g.Role() == messages.RoleLeader {
		if target, ok := nearestCard(g); ok {
			row, col := 2*target.R+target.A, target.C
			err := g.Step(client.Action{
				Code:        client.ActionSendInstruction,
				Instruction: fmt.Sprintf("head for the card at row %d col %d", row, col),
			})
			if err != nil {
				return err
			}
		}
	}

	for g.TurnState().Turn == g.Role() && g.TurnState().MovesRemaining > 0 && !g.Over() {
		target, ok := nearestCard(g)
		if !ok {
			break
		}
		loc, heading := g.Position()
		if err := g.Step(client.Action{Code: chooseStep(loc, heading, target)}); err != nil {
			return err
		}
	}
	if g.Over() {
		return nil
	}

	if g.Role() == messages.RoleFollower {
		for _, obj := range g.Instructions() {
			if !obj.Completed && !obj.Cancelled {
				err := g.Step(client.Action{
					Code:            client.ActionInstructionDone,
					InstructionUUID: obj.UUID,
				})
				if err != nil {
					return err
				}
				break
			}
		}
	}
	if g.TurnState().Turn != g.Role() || g.Over() {
		return nil
	}
	return g.Step(client.Action{Code: client.ActionEndTurn})
}

// nearestCard picks the closest card that is not already selected.
func nearestCard(g *client.Game) (hexgrid.HecsCoord, bool) {
	loc, _ := g.Position()
	best := hexgrid.Origin()
	bestDist := -1.0
	for _, p := range g.Props() {
		if p.PropType != messages.PropCard || p.CardInit == nil || p.CardInit.Selected {
			continue
		}
		d := loc.DistanceTo(p.PropInfo.Location)
		if bestDist < 0 || d < bestDist {
			best = p.PropInfo.Location
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

// chooseStep walks greedily: step forward when that closes the gap,
// otherwise rotate toward the target.
func chooseStep(loc hexgrid.HecsCoord, heading float64, target hexgrid.HecsCoord) client.ActionCode {
	current := loc.DistanceTo(target)
	if loc.NeighborAtHeading(heading).DistanceTo(target) < current {
		return client.ActionForward
	}
	if loc.NeighborAtHeading(heading-60).DistanceTo(target) < current {
		return client.ActionTurnLeft
	}
	return client.ActionTurnRight
}

// Command analyze prints human-readable summaries of recorded games. It
// reads the JSON-lines event logs the server writes for every room and
// reports pace, movement and card statistics per game.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hexcoop/hexcoop/game/config"
	"github.com/hexcoop/hexcoop/game/events"
	"github.com/hexcoop/hexcoop/game/messages"
	"github.com/hexcoop/hexcoop/game/record"
)

var recordsDir = flag.String("records", "", "Directory of game records (default: the configured record directory)")

// Summary aggregates one game's event log.
type Summary struct {
	GameID         string
	Events         int
	Duration       time.Duration
	LeaderMoves    int
	FollowerMoves  int
	MovesByCode    map[string]int
	CardSelects    int
	SetsCollected  int
	Instructions   int
	InstructionsDone int
	FinalScore     int
	Completed      bool
}

func main() {
	flag.Parse()

	dir := *recordsDir
	if dir == "" {
		dir = config.Default().RecordDirectory()
	}

	paths, err := record.ListLogs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing records: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Printf("No game records in %s\n", dir)
		return
	}

	for _, path := range paths {
		log, err := record.ReadLog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			continue
		}
		fmt.Print(formatSummary(summarize(log)))
	}
}

// summarize folds an event log into a Summary. The final score comes from
// the last turn state snapshot in the log.
func summarize(log []events.Event) Summary {
	s := Summary{MovesByCode: make(map[string]int)}
	if len(log) == 0 {
		return s
	}
	s.GameID = log[0].GameID
	s.Events = len(log)
	s.Duration = log[len(log)-1].ServerTime.Sub(log[0].ServerTime)

	for _, e := range log {
		switch e.Type {
		case events.TypeMove:
			if e.Origin == events.OriginLeader {
				s.LeaderMoves++
			} else {
				s.FollowerMoves++
			}
			if e.ShortCode != "" {
				s.MovesByCode[e.ShortCode]++
			}
		case events.TypeCardSelect:
			s.CardSelects++
		case events.TypeCardSet:
			s.SetsCollected++
		case events.TypeInstructionSent:
			s.Instructions++
		case events.TypeInstructionDone:
			s.InstructionsDone++
		case events.TypeTurnState:
			var ts messages.TurnState
			if err := json.Unmarshal([]byte(e.Data), &ts); err == nil {
				s.FinalScore = ts.Score
				s.Completed = ts.GameOver
			}
		}
	}
	return s
}

func formatSummary(s Summary) string {
	status := "in progress"
	if s.Completed {
		status = "finished"
	}
	out := fmt.Sprintf("\n=== Game %s (%s) ===\n", s.GameID, status)
	out += fmt.Sprintf("Events: %d over %s\n", s.Events, s.Duration.Round(time.Second))
	out += fmt.Sprintf("Score: %d (%d sets, %d card touches)\n", s.FinalScore, s.SetsCollected, s.CardSelects)
	out += fmt.Sprintf("Moves: %d leader, %d follower", s.LeaderMoves, s.FollowerMoves)
	for _, code := range []string{"MF", "MB", "TL", "TR"} {
		if n := s.MovesByCode[code]; n > 0 {
			out += fmt.Sprintf(" %s=%d", code, n)
		}
	}
	out += "\n"
	out += fmt.Sprintf("Instructions: %d sent, %d completed\n", s.Instructions, s.InstructionsDone)
	return out
}

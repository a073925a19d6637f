// Package mapgen generates and owns the per-room map: the hex tile grid, the
// card props scattered on it, and the spawn points players start from. The
// engine consumes it through an interface and treats it as an opaque spatial
// store.
package mapgen

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/ids"
	"github.com/hexcoop/hexcoop/game/messages"
)

// Render asset identifiers shared with clients.
const (
	AssetPlayer      = 0
	AssetFollowerBot = 1
	AssetGroundTile  = 2
	AssetRockyTile   = 3
	AssetCard        = 4
)

// Default map dimensions and card population.
const (
	DefaultRows      = 24
	DefaultCols      = 24
	DefaultCardCount = 21
	spawnPointCount  = 8
)

var cardColors = []messages.CardColor{
	messages.CardColorBlack, messages.CardColorBlue, messages.CardColorGreen,
	messages.CardColorOrange, messages.CardColorPink, messages.CardColorRed,
	messages.CardColorYellow,
}

var cardShapes = []messages.CardShape{
	messages.ShapePlus, messages.ShapeTorus, messages.ShapeHeart,
	messages.ShapeDiamond, messages.ShapeSquare, messages.ShapeStar,
	messages.ShapeTriangle,
}

// Provider owns a room's map. All methods are safe for concurrent use,
// though in practice only the room engine mutates it.
type Provider struct {
	mu     sync.Mutex
	rows   int
	cols   int
	tiles  []messages.Tile
	cards  map[int]*Card
	byLoc  map[hexgrid.HecsCoord]int
	spawns []hexgrid.HecsCoord
	ids    *ids.Assigner
	rng    *rand.Rand
	meta   messages.MapMetadata
}

// NewProvider generates a random map. Props and actors share the id
// assigner so their ids never overlap. The seed makes generation
// reproducible for tests and replays.
func NewProvider(rows, cols int, seed int64, assigner *ids.Assigner) *Provider {
	p := &Provider{
		rows:  rows,
		cols:  cols,
		cards: make(map[int]*Card),
		byLoc: make(map[hexgrid.HecsCoord]int),
		ids:   assigner,
		rng:   rand.New(rand.NewSource(seed)),
	}
	p.generateTiles()
	p.pickSpawnPoints()
	p.addRandomCardsLocked(DefaultCardCount)
	return p
}

// NewDefaultProvider generates a map with the standard dimensions.
func NewDefaultProvider(seed int64, assigner *ids.Assigner) *Provider {
	return NewProvider(DefaultRows, DefaultCols, seed, assigner)
}

// coordAt maps a (row, col) pair onto the interleaved HECS arrays.
func coordAt(row, col int) hexgrid.HecsCoord {
	return hexgrid.HecsCoord{A: row % 2, R: row / 2, C: col}
}

func (p *Provider) generateTiles() {
	p.tiles = make([]messages.Tile, 0, p.rows*p.cols)
	for row := 0; row < p.rows; row++ {
		for col := 0; col < p.cols; col++ {
			asset := AssetGroundTile
			// Sparse rocky accents; purely cosmetic, still walkable.
			if p.rng.Intn(12) == 0 {
				asset = AssetRockyTile
				p.meta.NumMountains++
			}
			p.tiles = append(p.tiles, messages.Tile{
				AssetID:         asset,
				Cell:            coordAt(row, col),
				RotationDegrees: 60 * p.rng.Intn(6),
			})
		}
	}
}

func (p *Provider) pickSpawnPoints() {
	all := make([]hexgrid.HecsCoord, 0, p.rows*p.cols)
	for row := 0; row < p.rows; row++ {
		for col := 0; col < p.cols; col++ {
			all = append(all, coordAt(row, col))
		}
	}
	p.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	n := spawnPointCount
	if n > len(all) {
		n = len(all)
	}
	p.spawns = all[:n]
}

// Map returns the full map snapshot, cards included as props.
func (p *Provider) Map() messages.MapUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	tiles := make([]messages.Tile, len(p.tiles))
	copy(tiles, p.tiles)
	return messages.MapUpdate{
		Rows:     p.rows,
		Cols:     p.cols,
		Tiles:    tiles,
		Props:    p.propsLocked(),
		Metadata: p.meta,
	}
}

// PropUpdate returns just the prop list.
func (p *Provider) PropUpdate() messages.PropUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return messages.PropUpdate{Props: p.propsLocked()}
}

// propsLocked returns the card props in id order so snapshots are
// deterministic.
func (p *Provider) propsLocked() []messages.Prop {
	props := make([]messages.Prop, 0, len(p.cards))
	for _, c := range p.cardsLocked() {
		props = append(props, c.Prop())
	}
	return props
}

func (p *Provider) cardsLocked() []Card {
	out := make([]Card, 0, len(p.cards))
	for _, c := range p.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SpawnPoints returns a copy of the spawn point list.
func (p *Provider) SpawnPoints() []hexgrid.HecsCoord {
	p.mu.Lock()
	defer p.mu.Unlock()
	spawns := make([]hexgrid.HecsCoord, len(p.spawns))
	copy(spawns, p.spawns)
	return spawns
}

// CardByLocation returns the card on the given cell, if any. At most one
// card occupies a cell.
func (p *Provider) CardByLocation(loc hexgrid.HecsCoord) (Card, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byLoc[loc]
	if !ok {
		return Card{}, false
	}
	return *p.cards[id], true
}

// SetSelected toggles a card's selection bit. Unknown ids are ignored.
func (p *Provider) SetSelected(id int, selected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.cards[id]; ok {
		c.Selected = selected
	}
}

// RemoveCard deletes a card and returns its id to the shared pool.
func (p *Provider) RemoveCard(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cards[id]
	if !ok {
		return
	}
	delete(p.byLoc, c.Location)
	delete(p.cards, id)
	p.ids.Free(id)
}

// AddRandomCards spawns n cards on unoccupied, non-spawn cells and returns
// them. Placement retries against occupied cells; on a full board it spawns
// fewer than requested.
func (p *Provider) AddRandomCards(n int) []Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addRandomCardsLocked(n)
}

func (p *Provider) addRandomCardsLocked(n int) []Card {
	spawnSet := make(map[hexgrid.HecsCoord]bool, len(p.spawns))
	for _, s := range p.spawns {
		spawnSet[s] = true
	}

	spawned := make([]Card, 0, n)
	const maxAttempts = 1000
	for len(spawned) < n {
		var loc hexgrid.HecsCoord
		placed := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			loc = coordAt(p.rng.Intn(p.rows), p.rng.Intn(p.cols))
			if _, occupied := p.byLoc[loc]; !occupied && !spawnSet[loc] {
				placed = true
				break
			}
		}
		if !placed {
			break
		}
		card := &Card{
			ID:       p.ids.Alloc(),
			Location: loc,
			Color:    cardColors[p.rng.Intn(len(cardColors))],
			Shape:    cardShapes[p.rng.Intn(len(cardShapes))],
			Count:    1 + p.rng.Intn(3),
		}
		p.cards[card.ID] = card
		p.byLoc[loc] = card.ID
		spawned = append(spawned, *card)
	}
	return spawned
}

// Cards returns a snapshot of every card on the map, in id order.
func (p *Provider) Cards() []Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cardsLocked()
}

// SelectedCards returns a snapshot of the currently selected cards, in id
// order.
func (p *Provider) SelectedCards() []Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Card
	for _, c := range p.cardsLocked() {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}

// SelectedCardsCollide reports whether the current selection is invalid.
func (p *Provider) SelectedCardsCollide() bool {
	return CardsCollide(p.SelectedCards())
}

// SelectedValidSet reports whether the current selection completes a set.
func (p *Provider) SelectedValidSet() bool {
	return ValidSet(p.SelectedCards())
}

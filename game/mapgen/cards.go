package mapgen

import (
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
)

// Card is one collectible card prop. A set is three selected cards whose
// (color, shape, count) triples are pairwise distinct on every attribute.
type Card struct {
	ID       int
	Location hexgrid.HecsCoord
	Color    messages.CardColor
	Shape    messages.CardShape
	Count    int
	Selected bool
}

// Prop converts the card to its wire representation.
func (c Card) Prop() messages.Prop {
	return messages.Prop{
		ID:       c.ID,
		PropType: messages.PropCard,
		PropInfo: messages.GenericPropInfo{
			Location: c.Location,
			Collide:  false,
		},
		CardInit: &messages.CardConfig{
			Color:    c.Color,
			Shape:    c.Shape,
			Count:    c.Count,
			Selected: c.Selected,
		},
	}
}

// SharesAttribute reports whether two cards match on color, shape or count.
func (c Card) SharesAttribute(o Card) bool {
	return c.Color == o.Color || c.Shape == o.Shape || c.Count == o.Count
}

// CardsCollide implements the invalid-selection rule: a collision exists when
// more than three cards are selected, or any two selected cards share an
// attribute.
func CardsCollide(selected []Card) bool {
	if len(selected) > 3 {
		return true
	}
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			if selected[i].SharesAttribute(selected[j]) {
				return true
			}
		}
	}
	return false
}

// ValidSet reports whether the selection is exactly three cards that pairwise
// differ on every attribute.
func ValidSet(selected []Card) bool {
	return len(selected) == 3 && !CardsCollide(selected)
}

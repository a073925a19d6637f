package messages

import "github.com/hexcoop/hexcoop/game/hexgrid"

// PropType discriminates the prop payload union.
type PropType int

const (
	PropNone PropType = iota
	PropSimple
	PropCard
)

// CardShape enumerates the shape attribute of a card.
type CardShape int

const (
	ShapeNone CardShape = iota
	ShapePlus
	ShapeTorus
	ShapeHeart
	ShapeDiamond
	ShapeSquare
	ShapeStar
	ShapeTriangle
)

// CardColor enumerates the color attribute of a card.
type CardColor int

const (
	CardColorNone CardColor = iota
	CardColorBlack
	CardColorBlue
	CardColorGreen
	CardColorOrange
	CardColorPink
	CardColorRed
	CardColorYellow
)

// GenericPropInfo is the pose and collision data every prop carries.
type GenericPropInfo struct {
	Location        hexgrid.HecsCoord `json:"location"`
	RotationDegrees int               `json:"rotation_degrees"`
	Collide         bool              `json:"collide"`
	BorderRadius    float64           `json:"border_radius"`
}

// CardConfig is the card-specific payload: the three set attributes plus the
// current selection bit.
type CardConfig struct {
	Color    CardColor `json:"color"`
	Shape    CardShape `json:"shape"`
	Count    int       `json:"count"`
	Selected bool      `json:"selected"`
}

// SimpleConfig is the payload for decorative props.
type SimpleConfig struct {
	AssetID int `json:"asset_id"`
}

// Prop is one map prop. Exactly one of CardInit / SimpleInit is populated,
// matching PropType.
type Prop struct {
	ID         int             `json:"id"`
	PropType   PropType        `json:"prop_type"`
	PropInfo   GenericPropInfo `json:"prop_info"`
	CardInit   *CardConfig     `json:"card_init,omitempty"`
	SimpleInit *SimpleConfig   `json:"simple_init,omitempty"`
}

// PropUpdate replaces the client's full prop list.
type PropUpdate struct {
	Props []Prop `json:"props"`
}

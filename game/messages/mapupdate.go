package messages

import "github.com/hexcoop/hexcoop/game/hexgrid"

// Tile is one hex cell of the map: which asset renders there and how it is
// oriented.
type Tile struct {
	AssetID         int               `json:"asset_id"`
	Cell            hexgrid.HecsCoord `json:"cell"`
	RotationDegrees int               `json:"rotation_degrees"`
}

// MapMetadata summarizes generated terrain features. Purely informational.
type MapMetadata struct {
	NumCities     int `json:"num_cities"`
	NumLakes      int `json:"num_lakes"`
	NumMountains  int `json:"num_mountains"`
	NumOutposts   int `json:"num_outposts"`
	NumPartitions int `json:"num_partitions"`
}

// MapUpdate replaces the client's entire view of the map.
type MapUpdate struct {
	Rows     int         `json:"rows"`
	Cols     int         `json:"cols"`
	Tiles    []Tile      `json:"tiles"`
	Props    []Prop      `json:"props"`
	Metadata MapMetadata `json:"metadata"`
}

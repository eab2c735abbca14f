package model

// RGB stroke color, 8 bits per channel.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Stroke is one immutable freehand path drawn by a player. Path carries
// move/line/quadratic/close commands in SVG path-data syntax (M/L/Q/Z plus
// their relative forms). Seq is assigned by the room's document on append
// and fixes the compositing order.
type Stroke struct {
	Seq      int64   `json:"seq"`
	Path     string  `json:"path"`
	Color    RGB     `json:"color"`
	Width    float64 `json:"width"`
	AuthorID string  `json:"authorId"`
}

// Package drag implements the pointer-tracking drag engine: gesture state,
// offset interpolation, drop-zone hit testing, and lifecycle coordination.
//
// The engine is renderer-agnostic. It never touches a DOM or styles;
// instead the coordinator emits a VisualState per frame and the rendering
// layer (the browser client, over the live websocket) applies it. Native
// browser drag-and-drop is deliberately not used anywhere: its latency and
// ghost-image artifacts are what this engine exists to avoid.
package drag

// Source tags where a dragged entity was picked up.
type Source string

const (
	SourceShop  Source = "shop"
	SourceBench Source = "bench"
	SourceBoard Source = "board"
)

// Entity is the immutable snapshot of the thing being dragged, taken at
// gesture start and never mutated mid-drag.
type Entity struct {
	ID     string `json:"id"`
	Source Source `json:"source"`

	// BenchIndex is set for bench-sourced entities.
	BenchIndex int `json:"bench_index,omitempty"`

	// Row/Col are set for board-sourced entities.
	Row int `json:"row,omitempty"`
	Col int `json:"col,omitempty"`
}

// Commit thresholds in CSS pixels. Shop cards get a generous threshold so a
// click intended as a purchase never reads as a pickup; bench and board
// units are already placed, so any movement should begin a visible drag.
const (
	DefaultShopThreshold  = 12.0
	DefaultBenchThreshold = 0.0
	DefaultBoardThreshold = 0.0
)

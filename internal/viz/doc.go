// Package viz draws a running engine in the terminal.
//
// [Canvas] is a braille dot canvas: each character cell holds 2x4 dots, so an
// 80x24 canvas resolves 160x96 dots. [Model] is a Bubble Tea program that
// advances its own engine at 60 frames per second and draws the boundary,
// links and particles onto the canvas next to a statistics panel.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	.       - Single frame while paused
//	R       - Restart the configured scene
//	B/C/A/W - Spawn block, chain, anchor or rain at the cursor
//	Arrows  - Move the cursor
//	T       - Cycle colour themes
//	G       - Toggle GIF recording
//	?       - Show help
package viz

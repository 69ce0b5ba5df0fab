// Package viz previews the zoom in the terminal.
//
//   - [Canvas]: braille dot canvas, 2x4 dots per cell
//   - [CanvasSink]: draws curve polylines onto a Canvas through a camera view
//   - [PreviewModel]: Bubble Tea model that plays the animation
//
// # Key Bindings
//
//	Space - Pause/Resume
//	F     - Toggle raw/fitted camera
//	R     - Restart
//	←/→   - Seek one second
//	+/-   - Double/halve playback speed
//	T     - Cycle themes
//	?     - Show help
package viz

// @focus: #sys { term }
// Package terminal is a cell-grid rendering and input engine for ANSI terminals.
//
// An Engine owns one terminal. Callers write cells into its grid with SetCell or
// Print, call Present to emit only the cells that changed since the previous
// frame, and call Poll for key, mouse and resize events.
//
// Features:
//   - 8/16 colour, 256 colour, grayscale and 24-bit output modes
//   - Double-buffered output with cell-level diffing and wide/combining graphemes
//   - Raw input decoding with a tunable escape timeout and pluggable extractors
//   - SIGWINCH resize coalescing through a self-pipe, one poll for input and resize
//   - Terminal restoration on shutdown, on Run exit paths and via EmergencyReset
//
// The package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
//
// An Engine is not safe for concurrent use.
package terminal

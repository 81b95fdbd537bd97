package terminal

// Extractor recognises caller-defined sequences at the head of the pending input.
// It returns ok with the event and the number of bytes consumed, or ok=false to decline.
// A pre-extractor sees every buffer before built-in decoding; a post-extractor only sees
// escape sequences the built-in tables did not recognise.
type Extractor interface {
	Extract(buf []byte) (ev Event, n int, ok bool)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(buf []byte) (Event, int, bool)

// Extract calls f(buf)
func (f ExtractorFunc) Extract(buf []byte) (Event, int, bool) {
	return f(buf)
}

// runExtractor invokes e and clamps its consumed count to the buffer
func runExtractor(e Extractor, buf []byte) (Event, int, bool) {
	if e == nil || len(buf) == 0 {
		return Event{}, 0, false
	}
	ev, n, ok := e.Extract(buf)
	if !ok || n <= 0 {
		return Event{}, 0, false
	}
	if n > len(buf) {
		n = len(buf)
	}
	return ev, n, true
}

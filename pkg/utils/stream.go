package utils

import "net/http"

// SetupStreamHeaders marks the response as an open-ended text stream: no
// length, caching disabled, connection kept alive. The body that follows is
// raw text with no framing.
func SetupStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

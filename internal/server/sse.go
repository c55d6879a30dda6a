package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

// errStreamingUnsupported surfaces as a 500 when the ResponseWriter
// doesn't implement http.Flusher — not expected on any real net/http
// server, but net/http.ResponseWriter offers no static guarantee.
var errStreamingUnsupported = apperr.New(apperr.Internal, "streaming unsupported by response writer")

// sseWriter wraps http.ResponseWriter for the chat SSE stream, per
// spec.md §6's frame grammar. Grounded on the teacher's sseWriter, with
// the payload format simplified to a bare `data: <chunk>` line (this
// protocol has no SDK event-type envelope).
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, true
}

// writeChunk sends one `data: <chunk>\n\n` frame. A chunk containing a
// newline is sent verbatim on one "data:" line — SSE defines no escaping
// for this protocol beyond what's needed by the conversational text it
// carries, and chunk payloads here are plain text, not arbitrary bytes.
func (s *sseWriter) writeChunk(chunk string) {
	fmt.Fprintf(s.w, "data: %s\n\n", strings.ReplaceAll(chunk, "\n", "\ndata: "))
	s.flusher.Flush()
}

// writeDone sends the normal-completion terminal marker.
func (s *sseWriter) writeDone() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

// writeStreamError sends the mid-stream-failure terminal marker. No
// [DONE] follows it.
func (s *sseWriter) writeStreamError(message string) {
	fmt.Fprintf(s.w, "data: [ERROR: %s]\n\n", message)
	s.flusher.Flush()
}

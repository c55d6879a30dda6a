package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type streamChatRequest struct {
	Message             string `json:"message"`
	PromptCustomization string `json:"prompt_customization,omitempty"`
}

// streamChat opens the SSE chat stream for one turn of a conversation,
// per spec.md §6's frame grammar: `data: <chunk>` per chunk, a
// terminal `data: [DONE]` on success, or a terminal
// `data: [ERROR: <message>]` with no following [DONE] on failure.
// Pre-flight NotFound/Forbidden surface as ordinary JSON error
// responses before any SSE header is written; everything from the
// first chunk onward is an SSE frame.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request) {
	var req streamChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	stream, err := s.engine.Stream(r.Context(), principalFrom(r),
		chi.URLParam(r, "conversationID"), req.Message, req.PromptCustomization)
	if err != nil {
		writeErr(w, err)
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeErr(w, errStreamingUnsupported)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			stream.Close()
			return
		case ev, ok := <-stream.Events():
			if !ok {
				sse.writeDone()
				return
			}
			if ev.Err != nil {
				sse.writeStreamError(ev.Err.Error())
				return
			}
			sse.writeChunk(ev.Chunk)
		}
	}
}

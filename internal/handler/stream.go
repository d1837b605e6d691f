package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/capitalize-ai/channelgw/internal/runtime"
	"github.com/capitalize-ai/channelgw/pkg/logger"
	"github.com/capitalize-ai/channelgw/pkg/metrics"
)

// StreamHandler taps the runtime's live event/response/error streams
// over SSE, for operator debugging.
//
// The runtime's Events/Responses/Errors channels are single-consumer:
// each item goes to whichever reader happens to be selecting at the
// time. Running more than one concurrent tap connection splits the
// stream between them rather than fanning it out; this is acceptable
// for an admin debugging tap but is not a pub/sub broadcast.
type StreamHandler struct {
	rt     *runtime.Runtime
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(rt *runtime.Runtime, log *logger.Logger) *StreamHandler {
	return &StreamHandler{rt: rt, logger: log}
}

// Stream handles GET /api/v1/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{"status": "tapping"})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	done := ctx.Done()

	for {
		select {
		case <-done:
			h.logger.Info("admin stream client disconnected")
			return

		case evt, ok := <-h.rt.Events():
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "event", evt)

		case resp, ok := <-h.rt.Responses():
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "response", resp)

		case rerr, ok := <-h.rt.Errors():
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "error", rerr)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", map[string]time.Time{"timestamp": time.Now()})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}

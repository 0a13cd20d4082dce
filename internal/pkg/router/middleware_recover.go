package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/shandysiswandi/mailblast/internal/pkg/stacktrace"
)

const panicMessage = "Internal server error"

// middlewareRecoverer turns a handler panic into a 500. When the handler
// already chose a streaming content type the status line may be gone, so the
// error is written as a final record in that framing instead.
//
//nolint:errcheck,gosec,contextcheck // ignore error
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // this must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			if paths := stacktrace.InternalPaths(debug.Stack()); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic on the server trace debug", "because", rvr, "stack", string(debug.Stack()))
			}

			writePanic(w)
		}()

		next.ServeHTTP(w, r)
	})
}

func writePanic(w http.ResponseWriter) {
	ct := w.Header().Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/x-ndjson"):
		json.NewEncoder(w).Encode(map[string]string{"status": "fatal", "error": panicMessage})
	case strings.HasPrefix(ct, "text/event-stream"):
		data, _ := json.Marshal(map[string]string{"message": panicMessage})
		w.Write([]byte("event: error\ndata: " + string(data) + "\n\n"))
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": panicMessage})
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/indieinfra/capture/server/util"
)

// RequestLogging attaches a request-scoped logger to the context and logs the
// final status of every request. Handlers enrich the logger once they know
// which user the request belongs to.
func RequestLogging(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := util.WithRequest(log.Default(), r, "")
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(util.ContextWithLogger(r.Context(), rl)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			switch {
			case status >= http.StatusInternalServerError:
				rl.Errorf("completed %d in %v (%d bytes)", status, time.Since(start), ww.BytesWritten())
			case status >= http.StatusBadRequest:
				rl.Warnf("completed %d in %v (%d bytes)", status, time.Since(start), ww.BytesWritten())
			case debug:
				rl.Infof("completed %d in %v (%d bytes)", status, time.Since(start), ww.BytesWritten())
			}
		})
	}
}

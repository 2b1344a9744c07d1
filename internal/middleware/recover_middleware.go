package middleware

import (
	"fmt"
	"net/http"

	"notes-api/pkg/logger"
	"notes-api/pkg/response"
)

// Recover turns a panic into a 500 envelope. The panic value is logged, the
// client only sees a generic message.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Log.Error().
				Str("request_id", GetRequestID(r)).
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Msg("handler panicked")

			response.InternalError(w, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

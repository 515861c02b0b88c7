package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"case-connector/pkg/apierror"
)

// Recovery is a middleware that recovers from panics.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("[Recovery] PANIC rid=%s: %v\n%s", GetRequestID(r.Context()), err, debug.Stack())
				writeError(w, apierror.InternalError("internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

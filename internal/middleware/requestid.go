package middleware

import (
	"context"
	"net/http"

	"case-connector/pkg/uid"
)

// RequestID tags every request with a correlation id. A well formed inbound
// X-Request-ID is reused so the time tracking platform's id reaches the
// case API calls made on its behalf; anything else is replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(uid.Header)
		if !uid.IsValid(id) {
			id = uid.New()
		}
		w.Header().Set(uid.Header, id)
		next.ServeHTTP(w, r.WithContext(uid.WithContext(r.Context(), id)))
	})
}

// GetRequestID returns the correlation id of the request context.
func GetRequestID(ctx context.Context) string {
	return uid.FromContext(ctx)
}

package chi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows any origin, echoes the headers a preflight asks for
// and answers preflight requests with 204.
func CORSMiddleware() func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"*"},
		ExposedHeaders:     []string{"X-Request-ID"},
		MaxAge:             600,
		OptionsPassthrough: true,
	})
	return func(next http.Handler) http.Handler {
		return handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

var corsMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
}

var corsHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}

// V1CORS applies the CORS policy. Browser requests are handled by rs/cors,
// which answers preflights with 200. Requests without an Origin header still
// receive the wildcard headers when every origin is allowed.
func V1CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:       allowedOrigins,
		AllowedMethods:       corsMethods,
		AllowedHeaders:       corsHeaders,
		ExposedHeaders:       []string{RequestIDHeader},
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusOK,
	})

	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
	}
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")

	return func(next http.Handler) http.Handler {
		h := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wildcard && r.Header.Get("Origin") == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// V1OptionsOK answers every OPTIONS request that reaches it with 200 and no body
func V1OptionsOK() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

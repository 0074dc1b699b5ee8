package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS applies the configured origin policy. origins is a comma-separated
// list; "*" allows any origin without credentials.
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := splitOrigins(origins)
	wildcard := len(allowed) == 1 && allowed[0] == "*"
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", GuestTokenHeader, "X-Request-Id"},
		ExposedHeaders:   []string{tokenHeader, GuestTokenHeader, "X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}

const tokenHeader = "X-KF-Token"

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

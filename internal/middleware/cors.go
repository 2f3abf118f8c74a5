package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var allowedOrigins = map[string]bool{
	"https://fittracker.2beens.online": true,
	"http://localhost:8080":            true,
	"test":                             true,
}

func Cors() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			userAgent := r.Header.Get("User-Agent")

			switch {
			case
				allowedOrigins[origin],
				// requests coming from the mobile app
				strings.HasPrefix(userAgent, "FitTracker/1"),
				strings.HasPrefix(userAgent, "curl/"),
				strings.HasPrefix(userAgent, "test-agent"):
				{
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Headers",
						"Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-FITTRACKER-TOKEN",
					)
					w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
				}
			default:
				log.Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

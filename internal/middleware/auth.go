package middleware

import (
	"net/http"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type AuthMiddlewareHandler struct {
	loginChecker *auth.LoginChecker
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(loginChecker *auth.LoginChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,

			// register-login-logout (logout checks its token itself)
			"/a/register": true,
			"/a/login":    true,
			"/a/logout":   true,
		},
	}
}

// AuthCheck resolves the session token to a user and stores the user id
// in the request context. Everything except the allowed paths requires a
// valid session.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get("X-FITTRACKER-TOKEN")
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.loginChecker.LoggedUserID(ctx, authToken)
			if err != nil {
				log.Tracef("[failed login check] => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "not-logged")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(ctx, userID)))
		})
	}
}

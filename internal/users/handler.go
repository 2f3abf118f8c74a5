package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fittracker/internal/middleware"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const minPasswordLength = 8

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type sessionService interface {
	NewSession(ctx context.Context, userID int, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	repo        usersRepo
	authService sessionService
}

func NewHandler(repo usersRepo, authService sessionService) *Handler {
	return &Handler{
		repo:        repo,
		authService: authService,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedLoginsPerMin int,
	metricsManager *metrics.Manager,
) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/register", handler.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	authSubrouter.
		HandleFunc("/login", handler.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/logout", handler.HandleLogout).
		Methods("GET", "OPTIONS").Name("logout")

	// login and register get hammered by bots, keep them rate limited
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedLoginsPerMin, metricsManager))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func credentialsFromRequest(r *http.Request) (credentialsRequest, error) {
	var credentials credentialsRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			return credentialsRequest{}, fmt.Errorf("unmarshal json params: %w", err)
		}
		return credentials, nil
	}

	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, fmt.Errorf("parse form: %w", err)
	}
	return credentialsRequest{
		Username: r.Form.Get("username"),
		Password: r.Form.Get("password"),
	}, nil
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	credentials, err := credentialsFromRequest(r)
	if err != nil {
		log.Errorf("register failed: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if credentials.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if len(credentials.Password) < minPasswordLength {
		http.Error(
			w,
			fmt.Sprintf("error, password must have at least %d characters", minPasswordLength),
			http.StatusBadRequest,
		)
		return
	}

	passwordHash, err := pkg.HashPassword(credentials.Password)
	if err != nil {
		log.Errorf("register failed, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	addedUser, err := handler.repo.Add(ctx, User{
		Username:     credentials.Username,
		PasswordHash: passwordHash,
	})
	if errors.Is(err, ErrUsernameTaken) {
		http.Error(w, "error, username taken", http.StatusConflict)
		return
	}
	if err != nil {
		log.Errorf("register failed, add user %s: %s", credentials.Username, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new user registered: %s [id %d]", addedUser.Username, addedUser.ID)

	addedUserJson, err := json.Marshal(addedUser)
	if err != nil {
		log.Errorf("register failed, marshal user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedUserJson, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	credentials, err := credentialsFromRequest(r)
	if err != nil {
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if credentials.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if credentials.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	userIP, err := pkg.ReadUserIP(r)
	if err != nil {
		userIP = "unknown"
	}

	user, err := handler.repo.GetByUsername(ctx, credentials.Username)
	if errors.Is(err, ErrUserNotFound) {
		log.Tracef("[username] failed login attempt for user %s from %s", credentials.Username, userIP)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("login failed, get user %s: %s", credentials.Username, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(credentials.Password, user.PasswordHash) {
		log.Tracef("[password] failed login attempt for user %s from %s", credentials.Username, userIP)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.NewSession(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	log.Tracef("new login success for user %s from %s", user.Username, userIP)
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s"}`, token))
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get("X-FITTRACKER-TOKEN")
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.authService.Logout(ctx, authToken); err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Printf("logout for [%s] success", authToken)
	pkg.WriteTextResponseOK(w, "logged-out")
}

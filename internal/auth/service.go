package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fittracker/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fittracker-session||"
	tokensSetKey     = "fittracker-sessions"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is what gets stored in redis per logged-in user,
// serialized as "<userID>:<createdAtUnix>".
type Session struct {
	UserID    int
	CreatedAt time.Time
}

func (s Session) encode() string {
	return fmt.Sprintf("%d:%d", s.UserID, s.CreatedAt.Unix())
}

func decodeSession(raw string) (Session, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return Session{}, fmt.Errorf("malformed session value [%s]", raw)
	}
	userID, err := strconv.Atoi(parts[0])
	if err != nil {
		return Session{}, fmt.Errorf("malformed session user id: %w", err)
	}
	createdAtUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("malformed session timestamp: %w", err)
	}
	return Session{
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// NewSession creates a login session for the given user and returns its token.
// Credentials must have been checked by the caller beforehand.
func (s *Service) NewSession(ctx context.Context, userID int, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	session := Session{UserID: userID, CreatedAt: createdAt}
	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, session.encode(), 0).Err(); err != nil {
		return "", err
	}

	// add token to the set of all sessions, for ScanAndClean
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	cmd := s.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return err
	}

	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return err
	}
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return err
	}

	return nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		return
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := s.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		session, err := decodeSession(cmd.Val())
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if time.Since(session.CreatedAt) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
		}
	}
}

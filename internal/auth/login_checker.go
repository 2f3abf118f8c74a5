package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// LoggedUserID returns the user behind the given session token, or
// ErrSessionNotFound / ErrSessionExpired.
func (lc *LoginChecker) LoggedUserID(ctx context.Context, token string) (int, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}

	session, err := decodeSession(cmd.Val())
	if err != nil {
		return 0, err
	}

	if time.Since(session.CreatedAt) > lc.ttl {
		return 0, ErrSessionExpired
	}

	return session.UserID, nil
}

func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	_, err := lc.LoggedUserID(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return false, nil
	default:
		return false, err
	}
}

// Package rider issues anonymous session tokens so reconnects map back to
// the same user id. There are no credentials: a session is a fresh uuid and
// a signed token carrying it.
package rider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionTTL  = 24 * time.Hour
	nicknameTTL = 24 * time.Hour

	defaultNickname = "anonymous"
)

type Service struct {
	secret []byte
	redis  *redis.Client

	mu        sync.RWMutex
	nicknames map[string]string // fallback when redis is absent
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Session struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Token    string `json:"token"`
}

func NewService(secret string, redisClient *redis.Client) *Service {
	return &Service{
		secret:    []byte(secret),
		redis:     redisClient,
		nicknames: map[string]string{},
	}
}

// CreateSession mints a new anonymous rider session.
func (s *Service) CreateSession(ctx context.Context, nickname string) (Session, error) {
	if nickname == "" {
		nickname = defaultNickname
	}

	userID := uuid.NewString()
	token, err := s.signToken(userID)
	if err != nil {
		return Session{}, err
	}
	if err := s.SetNickname(ctx, userID, nickname); err != nil {
		return Session{}, err
	}

	return Session{UserID: userID, Nickname: nickname, Token: token}, nil
}

// ResolveToken validates a session token and returns the rider's user id
// and stored nickname.
func (s *Service) ResolveToken(ctx context.Context, token string) (string, string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", "", errors.New("token invalid")
	}
	return claims.UserID, s.Nickname(ctx, claims.UserID), nil
}

// SetNickname stores the rider's display name. Redis-backed when
// available so the name survives reconnects against other instances.
func (s *Service) SetNickname(ctx context.Context, userID, nickname string) error {
	if s.redis != nil {
		return s.redis.Set(ctx, nicknameKey(userID), nickname, nicknameTTL).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nicknames[userID] = nickname
	return nil
}

// Nickname returns the stored display name, or the default when none is
// known.
func (s *Service) Nickname(ctx context.Context, userID string) string {
	if s.redis != nil {
		if v, err := s.redis.Get(ctx, nicknameKey(userID)).Result(); err == nil && v != "" {
			return v
		}
		return defaultNickname
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v := s.nicknames[userID]; v != "" {
		return v
	}
	return defaultNickname
}

func (s *Service) signToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func nicknameKey(userID string) string {
	return "rider:" + userID + ":nickname"
}

package rider

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCreateAndResolveSession(t *testing.T) {
	svc := NewService("secret", nil)

	session, err := svc.CreateSession(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.UserID == "" || session.Token == "" {
		t.Fatalf("incomplete session: %+v", session)
	}

	userID, nickname, err := svc.ResolveToken(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if userID != session.UserID || nickname != "alpha" {
		t.Fatalf("unexpected resolution: %s %s", userID, nickname)
	}
}

func TestResolveTokenRejectsGarbage(t *testing.T) {
	svc := NewService("secret", nil)
	if _, _, err := svc.ResolveToken(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResolveTokenRejectsWrongSecret(t *testing.T) {
	svc := NewService("secret", nil)
	session, err := svc.CreateSession(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	other := NewService("different", nil)
	if _, _, err := other.ResolveToken(context.Background(), session.Token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestDefaultNickname(t *testing.T) {
	svc := NewService("secret", nil)
	session, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Nickname != "anonymous" {
		t.Fatalf("expected default nickname, got %q", session.Nickname)
	}
	if svc.Nickname(context.Background(), "unknown-user") != "anonymous" {
		t.Fatalf("expected default for unknown user")
	}
}

func TestNicknameViaRedis(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	svc := NewService("secret", client)
	ctx := context.Background()

	if err := svc.SetNickname(ctx, "user-1", "beta"); err != nil {
		t.Fatalf("set nickname: %v", err)
	}
	if got := svc.Nickname(ctx, "user-1"); got != "beta" {
		t.Fatalf("unexpected nickname: %q", got)
	}
	if got := svc.Nickname(ctx, "user-2"); got != "anonymous" {
		t.Fatalf("expected default, got %q", got)
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyujiTanaka899/train-chat-app/internal/config"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 status")
	}

	var out struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" || out.Rooms != 0 {
		t.Fatalf("unexpected health payload: %+v", out)
	}
}

func TestRoutesRegistered(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret"}, nil, nil, Deps{})

	req := httptest.NewRequest(http.MethodPost, "/riders/session", nil)
	resp, err := s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("riders route: %v %d", err, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/lines/resolve?lat=-6.3&lng=106.82", nil)
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("lines route: %v %d", err, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/ws", nil)
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("chat ws route: %v %d", err, resp.StatusCode)
	}
}

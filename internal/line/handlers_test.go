package line

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestResolveRoute(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/lines"), Default())

	req := httptest.NewRequest(http.MethodGet, "/lines/resolve?lat=-6.3&lng=106.82", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status: %v %d", err, resp.StatusCode)
	}

	var out struct {
		Line   string `json:"line"`
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Line != "Bogor Line" || out.RoomID != "bogor-line" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestResolveRouteMiss(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/lines"), Default())

	req := httptest.NewRequest(http.MethodGet, "/lines/resolve?lat=35.68&lng=139.76", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v %d", err, resp.StatusCode)
	}
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/cache"
)

func newPresenceTestApp() *fiber.App {
	app := fiber.New()
	h := NewPresenceHandler(cache.NewPresenceCache(nil))
	app.Get("/presence", h.ListOnline)
	app.Get("/presence/:id", h.GetUserPresence)
	return app
}

func TestListOnlineDegradesWithoutRedis(t *testing.T) {
	app := newPresenceTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/presence", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	data, _ := io.ReadAll(resp.Body)
	var body struct {
		Online []string `json:"online"`
		Count  int64    `json:"count"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Online == nil {
		t.Error("online = null, want an empty list")
	}
	if len(body.Online) != 0 || body.Count != 0 {
		t.Errorf("online = %v count = %d, want empty and 0", body.Online, body.Count)
	}
}

func TestGetUserPresenceDegradesWithoutRedis(t *testing.T) {
	app := newPresenceTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/presence/user-9", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	data, _ := io.ReadAll(resp.Body)
	var body struct {
		UserID string `json:"user_id"`
		Online bool   `json:"online"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != "user-9" || body.Online {
		t.Errorf("body = %+v, want user-9 offline", body)
	}
}

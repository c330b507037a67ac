package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestProfileHandlerGet(t *testing.T) {
	f := newAuthFixture()
	cookie := loginAndVerify(t, f, "a@x.com")

	rec := performRequest(f.router, http.MethodGet, "/profile", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Identity struct {
			Email string `json:"email"`
		} `json:"identity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Identity.Email != "a@x.com" {
		t.Fatalf("expected a@x.com, got %q", got.Identity.Email)
	}
}

func TestProfileHandlerUpdate(t *testing.T) {
	f := newAuthFixture()
	cookie := loginAndVerify(t, f, "a@x.com")

	rec := performRequest(f.router, http.MethodPut, "/profile", map[string]string{
		"display_name": "Ana Banana",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	stored, err := f.idents.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("expected identity stored, got %v", err)
	}
	if stored.DisplayName != "Ana Banana" {
		t.Fatalf("expected display name updated, got %q", stored.DisplayName)
	}
}

func TestProfileHandlerUpdate_MissingName(t *testing.T) {
	f := newAuthFixture()
	cookie := loginAndVerify(t, f, "a@x.com")

	rec := performRequest(f.router, http.MethodPut, "/profile", map[string]string{}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProfileHandlerDelete(t *testing.T) {
	f := newAuthFixture()
	cookie := loginAndVerify(t, f, "a@x.com")

	rec := performRequest(f.router, http.MethodDelete, "/profile", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// Session revoked and identity soft-deleted: subsequent calls are 401.
	rec = performRequest(f.router, http.MethodGet, "/profile", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after account deletion, got %d", rec.Code)
	}
}

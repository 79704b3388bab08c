package profileclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestGetApplicant проверяет успешное получение профиля.
func TestGetApplicant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/applicants/app-123" {
			t.Errorf("неожиданный путь: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("неожиданный метод: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ApplicantProfile{
			ID:                "app-123",
			AssignedAssessors: []string{"ass-1", "ass-2"},
		})
	}))
	defer srv.Close()

	client, err := New(srv.URL, "", "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	profile, err := client.GetApplicant(context.Background(), "app-123")
	if err != nil {
		t.Fatalf("GetApplicant() ошибка: %v", err)
	}
	if profile.ID != "app-123" {
		t.Errorf("ID = %q, хотели %q", profile.ID, "app-123")
	}
	if !profile.HasAssessor("ass-2") {
		t.Error("HasAssessor(ass-2) = false, хотели true")
	}
	if profile.HasAssessor("ass-9") {
		t.Error("HasAssessor(ass-9) = true, хотели false")
	}
}

// TestGetApplicant_NotFound проверяет маппинг 404 → ErrNotFound.
func TestGetApplicant_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(srv.URL, "", "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	_, err = client.GetApplicant(context.Background(), "unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидали ErrNotFound, получили: %v", err)
	}
}

// TestGetApplicant_ServerError проверяет обработку 5xx.
func TestGetApplicant_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(srv.URL, "", "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	_, err = client.GetApplicant(context.Background(), "app-123")
	if err == nil {
		t.Fatal("ожидалась ошибка при статусе 500")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("статус 500 не должен маппиться в ErrNotFound")
	}
}

// TestGetApplicant_Token проверяет передачу сервисного токена.
func TestGetApplicant_Token(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer service-token" {
			t.Errorf("Authorization = %q, хотели %q", got, "Bearer service-token")
		}
		json.NewEncoder(w).Encode(ApplicantProfile{ID: "app-123"})
	}))
	defer srv.Close()

	client, err := New(srv.URL, "", "service-token", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	if _, err := client.GetApplicant(context.Background(), "app-123"); err != nil {
		t.Fatalf("GetApplicant() ошибка: %v", err)
	}
}

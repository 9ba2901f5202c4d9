package pushtoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/entity"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	calls       []string
	deactivated struct {
		userID string
		before time.Time
	}
	upserted   *entity.PushToken
	pruneAt    time.Time
	pruneCount int64
	err        error
}

func (f *fakeStore) DeactivateBefore(_ context.Context, userID string, before time.Time) (int64, error) {
	f.calls = append(f.calls, "deactivate")
	f.deactivated.userID, f.deactivated.before = userID, before
	return 2, f.err
}

func (f *fakeStore) Upsert(_ context.Context, t *entity.PushToken) error {
	f.calls = append(f.calls, "upsert")
	f.upserted = t
	return f.err
}

func (f *fakeStore) DeleteInactiveBefore(_ context.Context, before time.Time) (int64, error) {
	f.calls = append(f.calls, "delete")
	f.pruneAt = before
	return f.pruneCount, f.err
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (*auth.Principal, error) {
	if token == "good" {
		return &auth.Principal{UserID: "user-1"}, nil
	}
	return nil, auth.ErrInvalidToken
}

func newService(store *fakeStore) *Service {
	return NewService(store, 0, clockwork.NewFakeClockAt(now), zap.NewNop().Sugar())
}

func TestRegister(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	pt, err := svc.Register(context.Background(), "user-1", " fcm-token ")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if strings.Join(store.calls, ",") != "deactivate,upsert" {
		t.Fatalf("calls = %v, want deactivate then upsert", store.calls)
	}
	if store.deactivated.userID != "user-1" || !store.deactivated.before.Equal(now) {
		t.Errorf("deactivated = %+v", store.deactivated)
	}
	if pt.Token != "fcm-token" || !pt.Active || pt.UserID != "user-1" || !pt.CreatedAt.Equal(now) || pt.ID == "" {
		t.Errorf("upserted = %+v", pt)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(&fakeStore{})
	if _, err := svc.Register(context.Background(), "", "tok"); !errors.Is(err, ErrUserRequired) {
		t.Errorf("want ErrUserRequired, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "u", "   "); !errors.Is(err, ErrTokenRequired) {
		t.Errorf("want ErrTokenRequired, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	store := &fakeStore{pruneCount: 4}
	svc := newService(store)

	n, err := svc.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Prune() = %d, want 4", n)
	}
	if want := now.Add(-7 * 24 * time.Hour); !store.pruneAt.Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.pruneAt, want)
	}
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		auth       string
		body       string
		storeErr   error
		wantStatus int
		wantBody   string
	}{
		{"ok", "Bearer good", `{"token":"abc"}`, nil, http.StatusOK, `{"success":true}`},
		{"no auth header", "", `{"token":"abc"}`, nil, http.StatusUnauthorized, `{"error":"missing auth token"}`},
		{"bad user token", "Bearer bad", `{"token":"abc"}`, nil, http.StatusUnauthorized, `{"error":"user not authenticated"}`},
		{"missing push token", "Bearer good", `{}`, nil, http.StatusBadRequest, `{"error":"push token required"}`},
		{"blank push token", "Bearer good", `{"token":"  "}`, nil, http.StatusBadRequest, `{"error":"push token required"}`},
		{"invalid json", "Bearer good", `{`, nil, http.StatusBadRequest, `{"error":"invalid payload"}`},
		{"store failure", "Bearer good", `{"token":"abc"}`, errors.New("db down"), http.StatusInternalServerError, `{"error":"failed to save token"}`},
		{"wrapped token required", "Bearer good", `{"token":"abc"}`, fmt.Errorf("check constraint: %w", ErrTokenRequired), http.StatusBadRequest, `{"error":"push token required"}`},
		{"oversized body", "Bearer good", `{"token":"` + strings.Repeat("a", maxRegisterBody) + `"}`, nil, http.StatusBadRequest, `{"error":"invalid payload"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(newService(&fakeStore{err: tt.storeErr}), fakeVerifier{}, zap.NewNop().Sugar())
			r := httptest.NewRequest(http.MethodPost, "/push-tokens", strings.NewReader(tt.body))
			if tt.auth != "" {
				r.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			h.Register(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestPruneHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := NewHandler(newService(&fakeStore{pruneCount: 3}), fakeVerifier{}, zap.NewNop().Sugar())
		w := httptest.NewRecorder()
		h.Prune(w, httptest.NewRequest(http.MethodPost, "/push-tokens/prune", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var out struct {
			Success   bool  `json:"success"`
			Removidos int64 `json:"removidos"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !out.Success || out.Removidos != 3 {
			t.Errorf("response = %+v", out)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		h := NewHandler(newService(&fakeStore{err: errors.New("db down")}), fakeVerifier{}, zap.NewNop().Sugar())
		w := httptest.NewRecorder()
		h.Prune(w, httptest.NewRequest(http.MethodPost, "/push-tokens/prune", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

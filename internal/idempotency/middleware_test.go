package idempotency

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*Response
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*Response{}}
}

func (m *memoryStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = nil
	return true, nil
}

func (m *memoryStore) Load(_ context.Context, key string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *memoryStore) Save(_ context.Context, key string, resp *Response, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = resp
	return nil
}

func (m *memoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func newTestMiddleware(store Store) func(http.Handler) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return Middleware(store, time.Hour, func(r *http.Request) string { return r.Header.Get("X-User") }, log)
}

func post(h http.Handler, key, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payment-requests/1/pay", nil)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReplaysFirstResponse(t *testing.T) {
	calls := 0
	h := newTestMiddleware(newMemoryStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	first := post(h, "k1", "alice")
	second := post(h, "k1", "alice")
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != `{"ok":true}` {
		t.Fatalf("replay %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get(HeaderReplay) != "true" || first.Header().Get(HeaderReplay) != "" {
		t.Fatalf("replay header missing or misplaced")
	}

	post(h, "k1", "bob")
	if calls != 2 {
		t.Fatalf("keys not scoped per user, handler ran %d times", calls)
	}
}

func TestRetryableResponsesAreNotStored(t *testing.T) {
	calls := 0
	h := newTestMiddleware(newMemoryStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusConflict)
	}))

	post(h, "k2", "alice")
	post(h, "k2", "alice")
	if calls != 2 {
		t.Fatalf("conflict response was replayed, handler ran %d times", calls)
	}
}

func TestInFlightKeyGetsConflict(t *testing.T) {
	store := newMemoryStore()
	if _, err := store.Reserve(context.Background(), "idem:alice:/payment-requests/1/pay:k3", time.Hour); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	h := newTestMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run while key is in flight")
	}))

	rec := post(h, "k3", "alice")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestWithoutKeyPassesThrough(t *testing.T) {
	calls := 0
	h := newTestMiddleware(newMemoryStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	post(h, "", "alice")
	post(h, "", "alice")
	if calls != 2 {
		t.Fatalf("handler ran %d times", calls)
	}
}

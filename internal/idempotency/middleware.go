// Package idempotency lets clients retry POST requests safely by sending an
// Idempotency-Key header. The first response for a key is recorded and replayed.
package idempotency

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	HeaderKey    = "Idempotency-Key"
	HeaderReplay = "Idempotent-Replayed"
	maxKeyLength = 128
)

// Middleware returns an HTTP middleware recording responses in store for ttl. scope
// namespaces keys, typically by the authenticated user.
func Middleware(store Store, ttl time.Duration, scope func(*http.Request) string, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				writeError(w, http.StatusBadRequest, "Idempotency-Key is too long")
				return
			}
			storeKey := "idem:" + scope(r) + ":" + r.URL.Path + ":" + key
			ctx := r.Context()

			reserved, err := store.Reserve(ctx, storeKey, ttl)
			if err != nil {
				log.WithError(err).Warn("Idempotency store unavailable, serving without it")
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				stored, err := store.Load(ctx, storeKey)
				if err != nil {
					log.WithError(err).Error("Failed to load idempotent response")
					writeError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				if stored == nil {
					w.Header().Set("Retry-After", "1")
					writeError(w, http.StatusConflict, "A request with this Idempotency-Key is in progress")
					return
				}
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set(HeaderReplay, "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := &recorder{header: http.Header{}, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if cacheable(rec) {
				resp := &Response{Status: rec.status, ContentType: rec.header.Get("Content-Type"), Body: rec.body.Bytes()}
				if err := store.Save(ctx, storeKey, resp, ttl); err != nil {
					log.WithError(err).Warn("Failed to store idempotent response")
				}
			} else if err := store.Release(ctx, storeKey); err != nil {
				log.WithError(err).Warn("Failed to release idempotency key")
			}

			for k, v := range rec.header {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.status)
			_, _ = w.Write(rec.body.Bytes())
		})
	}
}

// Retryable outcomes are not recorded so the client can try again with the same key.
func cacheable(rec *recorder) bool {
	if rec.status >= http.StatusInternalServerError {
		return false
	}
	if rec.status == http.StatusConflict && rec.header.Get("Retry-After") != "" {
		return false
	}
	return true
}

type recorder struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

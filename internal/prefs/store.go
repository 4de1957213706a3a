package prefs

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Keys of the two persisted preferences.
const (
	KeyLanguage = "lang"
	KeyTheme    = "theme"
)

const cookieMaxAge = 365 * 24 * time.Hour

// Store is a synchronous key/value store scoped to one browser origin.
// A missing key is a valid state, not an error.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore, optionally seeded with values.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// CookieStore exposes the browser cookie jar of one request as a Store.
// Set stages a persistent Set-Cookie header and updates the in-request view,
// so a later Get in the same request observes the new value.
type CookieStore struct {
	w      http.ResponseWriter
	secure bool

	mu     sync.Mutex
	values map[string]string
}

// NewCookieStore reads the current cookies of r. Headers are written to w on Set.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	values := map[string]string{}
	for _, key := range []string{KeyLanguage, KeyTheme} {
		c, err := r.Cookie(key)
		if err != nil || c.Value == "" {
			continue
		}
		if v, err := url.QueryUnescape(c.Value); err == nil {
			values[key] = v
		}
	}
	return &CookieStore{w: w, secure: secure, values: values}
}

func (s *CookieStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *CookieStore) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

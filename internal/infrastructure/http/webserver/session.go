package webserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/infrastructure/config"
)

// Session is one browser's page state. It lives only in memory and is gone
// once it expires or the process exits.
type Session struct {
	ID        string
	Store     *search.Store
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore manages page sessions keyed by cookie
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	config   config.SessionConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionStore creates a new session store
func NewSessionStore(cfg config.SessionConfig, logger *zap.Logger) *SessionStore {
	if cfg.CookieName == "" {
		cfg.CookieName = "surprise-session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Load returns the session named by the request cookie, creating a fresh one
// when the cookie is missing, unknown or expired. The expiry slides forward
// and the cookie is (re)issued on w.
func (s *SessionStore) Load(w http.ResponseWriter, r *http.Request) *Session {
	now := s.now()

	var id string
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		id = cookie.Value
	}

	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok || !now.Before(session.ExpiresAt) {
		session = &Session{
			ID:        uuid.NewString(),
			Store:     search.NewStore(search.InitialState()),
			CreatedAt: now,
		}
		s.sessions[session.ID] = session
		s.logger.Debug("Session created", zap.String("session_id", session.ID))
	}
	session.ExpiresAt = now.Add(s.config.TTL)
	sessionID := session.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.TTL.Seconds()),
	})

	return session
}

// Delete removes a session
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live and not yet collected sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupExpired removes expired sessions and returns how many went
func (s *SessionStore) CleanupExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Cleaned up expired sessions", zap.Int("removed", removed), zap.Int("remaining", len(s.sessions)))
	}
	return removed
}

// Run collects expired sessions every cleanup interval until ctx is done
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}

type sessionKey struct{}

// Middleware loads the session for every request and stores it in the
// request context
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.Load(w, r)
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom returns the session stored by Middleware
func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok
}

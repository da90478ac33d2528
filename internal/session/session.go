package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/dutchbamin/together/internal/localstore"
	"github.com/dutchbamin/together/pkg/logger"
)

// Session is the viewer's identity for one sign-in: the bearer token plus
// the minimal profile the backend returned. It is passed explicitly to
// everything that needs it; there is no package-level token slot.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
	Nickname    string
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != "" && s.UserID != ""
}

// Store owns the current session and its persistence in the local store.
// It is the single source of truth for the bearer token: outgoing calls
// read through Token, never through a copied string.
type Store struct {
	db   *gorm.DB
	logg *logger.Logger

	mu      sync.RWMutex
	current *Session
}

func NewStore(local *localstore.Store, logg *logger.Logger) (*Store, error) {
	if local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{db: local.DB(), logg: logg}, nil
}

// Current returns the active session, or nil when signed out.
func (st *Store) Current() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Token implements the token source consumed by the API client.
func (st *Store) Token(ctx context.Context) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.current == nil || st.current.AccessToken == "" {
		return "", false
	}
	return st.current.AccessToken, true
}

// Save activates the session and persists it for the next startup.
func (st *Store) Save(ctx context.Context, sess Session) error {
	if !sess.Authenticated() {
		return fmt.Errorf("cannot save an unauthenticated session")
	}

	record := localstore.SessionRecord{
		ID:          1,
		AccessToken: sess.AccessToken,
		UserID:      sess.UserID,
		Email:       sess.Email,
		Nickname:    sess.Nickname,
		SavedAt:     time.Now(),
	}
	if err := st.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	st.mu.Lock()
	st.current = &sess
	st.mu.Unlock()

	return nil
}

// Restore loads the persisted session at startup. A missing record or an
// expired token yields a nil session without error; the viewer simply
// starts signed out.
func (st *Store) Restore(ctx context.Context) (*Session, error) {
	var record localstore.SessionRecord
	err := st.db.WithContext(ctx).First(&record, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if tokenExpired(record.AccessToken, time.Now()) {
		st.logg.Info(ctx, "stored session expired, discarding")
		if err := st.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	sess := Session{
		AccessToken: record.AccessToken,
		UserID:      record.UserID,
		Email:       record.Email,
		Nickname:    record.Nickname,
	}

	st.mu.Lock()
	st.current = &sess
	st.mu.Unlock()

	ctx = st.logg.WithUserID(ctx, sess.UserID)
	st.logg.Info(ctx, "session restored")
	return &sess, nil
}

// Clear signs the viewer out and removes the persisted record.
func (st *Store) Clear(ctx context.Context) error {
	if err := st.db.WithContext(ctx).Delete(&localstore.SessionRecord{}, 1).Error; err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	st.mu.Lock()
	st.current = nil
	st.mu.Unlock()

	return nil
}

// tokenExpired decodes the access token without verifying its signature.
// Verification belongs to the remote backend; the only thing read here is
// the exp claim, to avoid restoring a token that is guaranteed to 401.
// Tokens that do not parse as JWTs are kept and left to the backend.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

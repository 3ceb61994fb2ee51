// Package session holds the access/refresh token pair, persists it, and
// decides locally whether it is still usable.
//
// A Session is created once by the dispatcher and handed to everything that
// needs tokens: the HTTP transport, the login/logout commands and the guards.
// Nothing else reads token.json.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Store persists a token pair between runs.
type Store interface {
	// Load returns the stored token, or nil when nothing is stored.
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Remove() error
}

// ErrCorrupt is returned by FileStore.Load when the file does not hold a token.
var ErrCorrupt = errors.New("corrupt token file")

// FileStore keeps the token as JSON in a single file with mode 0600.
type FileStore struct {
	Path string
}

// Load implements Store.
func (f FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &tok, nil
}

// Save implements Store.
func (f FileStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0600)
}

// Remove implements Store. Removing a missing file is not an error.
func (f FileStore) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore is a Store that never touches disk.
type MemoryStore struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

// Load implements Store.
func (m *MemoryStore) Load() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, nil
	}
	tok := *m.tok
	return &tok, nil
}

// Save implements Store.
func (m *MemoryStore) Save(tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	m.tok = &cp
	return nil
}

// Remove implements Store.
func (m *MemoryStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

// Session is the in-memory view of the stored token pair.
// Token and Set are the only accessor and mutator; the remaining methods are
// shorthands built on them.
type Session struct {
	mu    sync.RWMutex
	store Store
	tok   oauth2.Token
	now   func() time.Time
}

// Open loads the session from store. A corrupt token file yields an empty
// session so the user can simply log in again.
func Open(store Store) (*Session, error) {
	s := &Session{store: store, now: time.Now}
	tok, err := store.Load()
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return nil, err
	}
	if tok != nil {
		s.tok = *tok
	}
	return s, nil
}

// New returns an empty session backed by an in-memory store.
func New() *Session {
	return &Session{store: &MemoryStore{}, now: time.Now}
}

// SetClock overrides the time source used by Authenticated.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Token returns a copy of the current token pair.
func (s *Session) Token() oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

// Set replaces the token pair and persists it. Setting an empty pair removes
// the stored file.
func (s *Session) Set(tok oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		s.tok = oauth2.Token{}
		return s.store.Remove()
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if exp, ok := Expiry(tok.AccessToken); ok {
		tok.Expiry = exp
	}
	s.tok = tok
	return s.store.Save(&tok)
}

// AccessToken returns the current access token, or "".
func (s *Session) AccessToken() string {
	return s.Token().AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (s *Session) RefreshToken() string {
	return s.Token().RefreshToken
}

// Login stores a fresh token pair.
func (s *Session) Login(access, refresh string) error {
	return s.Set(oauth2.Token{AccessToken: access, RefreshToken: refresh})
}

// SetAccess replaces the access token and keeps the refresh token.
func (s *Session) SetAccess(access string) error {
	tok := s.Token()
	return s.Set(oauth2.Token{AccessToken: access, RefreshToken: tok.RefreshToken})
}

// Clear drops both tokens.
func (s *Session) Clear() error {
	return s.Set(oauth2.Token{})
}

// Present reports whether any token is stored.
func (s *Session) Present() bool {
	tok := s.Token()
	return tok.AccessToken != "" || tok.RefreshToken != ""
}

// Authenticated reports whether the access token is locally valid right now.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	access, now := s.tok.AccessToken, s.now
	s.mu.RUnlock()
	return Valid(access, now())
}

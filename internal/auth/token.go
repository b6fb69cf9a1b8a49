package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

const (
	tokenFilePermMode = 0o600
	keyringService    = "calnav"
	keyringTokenKey   = "oauth-token"
)

// ErrTokenNotFound is returned by a TokenStore that has no saved token.
var ErrTokenNotFound = errors.New("no saved token")

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// FileTokenStore keeps the token as JSON in a single file.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Load loads an OAuth token from the store's file
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("unable to open token file: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("unable to decode token: %w", err)
	}

	return tok, nil
}

// Save writes the token with owner-only permissions, creating the parent
// directory if needed.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, tokenFilePermMode)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	return nil
}

// KeyringTokenStore keeps the token in the OS keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
}

// openKeyring is swapped in tests.
var openKeyring = func(fileDir string) (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:      keyringService,
		FileDir:          fileDir,
		FilePasswordFunc: keyring.TerminalPrompt,
	})
}

// OpenKeyringTokenStore opens the platform keyring. fileDir is used only by
// the encrypted-file fallback backend.
func OpenKeyringTokenStore(fileDir string) (*KeyringTokenStore, error) {
	ring, err := openKeyring(fileDir)
	if err != nil {
		return nil, fmt.Errorf("unable to open keyring: %w", err)
	}
	return NewKeyringTokenStore(ring), nil
}

// NewKeyringTokenStore wraps an already open keyring.
func NewKeyringTokenStore(ring keyring.Keyring) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring}
}

func (s *KeyringTokenStore) Load() (*oauth2.Token, error) {
	item, err := s.ring.Get(keyringTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("unable to read token from keyring: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(item.Data, tok); err != nil {
		return nil, fmt.Errorf("unable to decode token: %w", err)
	}
	return tok, nil
}

func (s *KeyringTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	err = s.ring.Set(keyring.Item{
		Key:         keyringTokenKey,
		Data:        data,
		Label:       "calnav Google Calendar token",
		Description: "OAuth token",
	})
	if err != nil {
		return fmt.Errorf("unable to write token to keyring: %w", err)
	}
	return nil
}

// savingTokenSource writes refreshed tokens back to the store so the next
// run starts from the newest refresh.
type savingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore

	mu   sync.Mutex
	last string
}

func newSavingTokenSource(base oauth2.TokenSource, store TokenStore, current *oauth2.Token) *savingTokenSource {
	ts := &savingTokenSource{base: base, store: store}
	if current != nil {
		ts.last = current.AccessToken
	}
	return ts
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.store.Save(tok); err != nil {
			slog.Warn("failed to save refreshed token", "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

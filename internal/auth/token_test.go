package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testToken(access string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: "refresh-" + access,
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)

	want := testToken("abc")
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))
}

func TestFileTokenStore_Missing(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestFileTokenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileTokenStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestKeyringTokenStore_RoundTrip(t *testing.T) {
	store := NewKeyringTokenStore(keyring.NewArrayKeyring(nil))

	_, err := store.Load()
	require.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Save(testToken("from-keyring")))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", got.AccessToken)
}

func TestOpenKeyringTokenStore(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	orig := openKeyring
	openKeyring = func(string) (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openKeyring = orig })

	store, err := OpenKeyringTokenStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(testToken("x")))

	item, err := ring.Get(keyringTokenKey)
	require.NoError(t, err)
	assert.Contains(t, string(item.Data), `"access_token":"x"`)
}

type countingStore struct {
	saved []*oauth2.Token
	tok   *oauth2.Token
}

func (s *countingStore) Load() (*oauth2.Token, error) {
	if s.tok == nil {
		return nil, ErrTokenNotFound
	}
	return s.tok, nil
}

func (s *countingStore) Save(tok *oauth2.Token) error {
	s.saved = append(s.saved, tok)
	s.tok = tok
	return nil
}

func TestSavingTokenSource(t *testing.T) {
	store := &countingStore{}
	current := testToken("old")

	ts := newSavingTokenSource(oauth2.StaticTokenSource(current), store, current)
	_, err := ts.Token()
	require.NoError(t, err)
	assert.Empty(t, store.saved, "unchanged token should not be rewritten")

	refreshed := testToken("new")
	ts.base = oauth2.StaticTokenSource(refreshed)
	for i := 0; i < 3; i++ {
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "new", tok.AccessToken)
	}
	require.Len(t, store.saved, 1)
	assert.Equal(t, "new", store.saved[0].AccessToken)
}

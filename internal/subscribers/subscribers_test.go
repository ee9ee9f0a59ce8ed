package subscribers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signupTime = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func emptyStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(filepath.Join(t.TempDir(), "subscribers.json"))
	require.NoError(t, err)
	return s
}

func TestAdd(t *testing.T) {
	s := emptyStore(t)

	sub, err := s.Add("fan@example.com", signupTime)
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", sub.Email)
	assert.Equal(t, signupTime.Format(time.RFC3339), sub.SubscribedDate)
	assert.NotEmpty(t, sub.UnsubscribeToken)

	// Duplicate detection is case-insensitive.
	_, err = s.Add("FAN@example.com", signupTime)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.Len(t, s.List(), 1)
}

func TestRemove(t *testing.T) {
	s := emptyStore(t)
	_, err := s.Add("fan@example.com", signupTime)
	require.NoError(t, err)

	assert.False(t, s.Remove("nobody@example.com"))
	assert.True(t, s.Remove("FAN@EXAMPLE.COM"))
	assert.Empty(t, s.List())
}

func TestRemoveByToken(t *testing.T) {
	s := emptyStore(t)
	sub, err := s.Add("fan@example.com", signupTime)
	require.NoError(t, err)

	_, ok := s.RemoveByToken("not-a-token")
	assert.False(t, ok)

	email, ok := s.RemoveByToken(sub.UnsubscribeToken)
	assert.True(t, ok)
	assert.Equal(t, "fan@example.com", email)
	assert.Empty(t, s.List())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscribers.json")

	s, err := Load(path)
	require.NoError(t, err)
	_, err = s.Add("a@example.com", signupTime)
	require.NoError(t, err)
	_, err = s.Add("b@example.com", signupTime)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.List(), reloaded.List())
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "applications.json")
	s, err := NewStore(filename)
	require.NoError(t, err)
	return s, filename
}

func sampleApplication(userid string) Application {
	return Application{
		Id:          uuid.New(),
		UserId:      userid,
		UserDisplay: "Juanito | pepito",
		Answers:     []string{"a", "b"},
		ChannelId:   "chan1",
		Status:      StatusPending,
		Score:       85.5,
		SubmittedAt: time.Now().UTC(),
		Roblox:      RobloxInfo{Username: "pepito", ProfileUrl: "https://www.roblox.com/users/1/profile"},
	}
}

func TestStoreSurvivesRestart(t *testing.T) {

	s, filename := tempStore(t)
	app := sampleApplication("42")
	require.NoError(t, s.Put(app))

	reloaded, err := NewStore(filename)
	require.NoError(t, err)

	loaded, ok := reloaded.Get("42")
	require.True(t, ok)
	assert.Equal(t, app.Id, loaded.Id)
	assert.Equal(t, app.UserDisplay, loaded.UserDisplay)
	assert.Equal(t, app.Score, loaded.Score)
	assert.Equal(t, StatusPending, loaded.Status)
}

func TestStoreMissingFileIsEmpty(t *testing.T) {

	s, _ := tempStore(t)
	_, ok := s.Get("42")
	assert.False(t, ok)
	assert.False(t, s.HasDecided("42"))
}

func TestSetDecisionIsTerminal(t *testing.T) {

	s, _ := tempStore(t)
	require.NoError(t, s.Put(sampleApplication("42")))

	decided, err := s.SetDecision("42", StatusApproved, "Mod", false)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	assert.Equal(t, "Mod", decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)
	assert.True(t, s.HasDecided("42"))

	// Terminal records only change through Delete
	_, err = s.SetDecision("42", StatusRejected, "OtherMod", false)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestSetDecisionUnknownUser(t *testing.T) {

	s, _ := tempStore(t)
	_, err := s.SetDecision("42", StatusApproved, "Mod", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnlocksReapplication(t *testing.T) {

	s, filename := tempStore(t)
	require.NoError(t, s.Put(sampleApplication("42")))
	_, err := s.SetDecision("42", StatusRejected, "Mod", false)
	require.NoError(t, err)

	app, existed, err := s.Delete("42")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, StatusRejected, app.Status)
	assert.False(t, s.HasDecided("42"))

	// Deletion reaches the file too
	reloaded, err := NewStore(filename)
	require.NoError(t, err)
	_, ok := reloaded.Get("42")
	assert.False(t, ok)

	// Deleting again is a no-op
	_, existed, err = s.Delete("42")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestHasDecidedIgnoresPending(t *testing.T) {

	s, _ := tempStore(t)
	require.NoError(t, s.Put(sampleApplication("42")))
	assert.False(t, s.HasDecided("42"))
}

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFetchAbsentReturnsNil(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	settings, err := svc.Fetch(context.Background(), "user1")
	require.NoError(t, err, "a user with no settings document is not an error")
	assert.Nil(t, settings)
}

func TestSettingsSaveAndFetch(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	err := svc.Save(context.Background(), "user1", map[string]interface{}{
		"theme":        "dark",
		"emailDigest":  true,
		"feedPageSize": float64(25),
	})
	require.NoError(t, err)

	settings, err := svc.Fetch(context.Background(), "user1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "user1", settings.UserID)
	assert.Equal(t, "dark", settings.Values["theme"])
	assert.Equal(t, true, settings.Values["emailDigest"])
}

func TestSettingsSaveMergesPartialWrites(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	require.NoError(t, svc.Save(context.Background(), "user1", map[string]interface{}{
		"theme":       "dark",
		"emailDigest": true,
	}))
	require.NoError(t, svc.Save(context.Background(), "user1", map[string]interface{}{
		"theme": "light",
	}))

	settings, err := svc.Fetch(context.Background(), "user1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "light", settings.Values["theme"], "present keys overwrite")
	assert.Equal(t, true, settings.Values["emailDigest"], "omitted keys survive")
}

func TestSettingsSaveEmptyMapIsNoOp(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewSettingsService(repo)

	require.NoError(t, svc.Save(context.Background(), "user1", map[string]interface{}{}))
	require.NoError(t, svc.Save(context.Background(), "user1", nil))

	settings, err := svc.Fetch(context.Background(), "user1")
	require.NoError(t, err)
	assert.Nil(t, settings, "an empty write must not materialize a document")
}

func TestSettingsAreIsolatedPerUser(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	require.NoError(t, svc.Save(context.Background(), "user1", map[string]interface{}{"theme": "dark"}))
	require.NoError(t, svc.Save(context.Background(), "user2", map[string]interface{}{"theme": "light"}))

	first, err := svc.Fetch(context.Background(), "user1")
	require.NoError(t, err)
	second, err := svc.Fetch(context.Background(), "user2")
	require.NoError(t, err)
	assert.Equal(t, "dark", first.Values["theme"])
	assert.Equal(t, "light", second.Values["theme"])
}

package robloxapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalUserId(t *testing.T) {

	data := []byte(`{"data":[{"requestedUsername":"pepito","id":123456,"name":"pepito"}]}`)
	id, found, err := UnmarshalUserId(data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, UserId(123456), id)
}

func TestUnmarshalUserIdNoMatch(t *testing.T) {

	_, found, err := UnmarshalUserId([]byte(`{"data":[]}`))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnmarshalProfile(t *testing.T) {

	data := []byte(`{
		"description": "mi código: PuroCL",
		"created": "2020-06-01T10:00:00Z",
		"id": 123456,
		"name": "pepito",
		"displayName": "Pepito RP"
	}`)
	profile, err := UnmarshalProfile(data)
	require.NoError(t, err)

	assert.Equal(t, UserId(123456), profile.Id)
	assert.Equal(t, "pepito", profile.Username)
	assert.Equal(t, "Pepito RP", profile.DisplayName)
	assert.Equal(t, "mi código: PuroCL", profile.Description)
	assert.Equal(t, time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC), profile.Created)
	assert.Equal(t, "https://www.roblox.com/users/123456/profile", profile.ProfileUrl())
}

func TestUnmarshalAvatarUrl(t *testing.T) {

	data := []byte(`{"data":[{"targetId":123456,"state":"Completed","imageUrl":"https://cdn.example/avatar.png"}]}`)
	url, err := UnmarshalAvatarUrl(data)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/avatar.png", url)
}

package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAvatarRequest_UnmarshalJSON(t *testing.T) {
	t.Run("value present", func(t *testing.T) {
		var req UpdateAvatarRequest
		require.NoError(t, json.Unmarshal([]byte(`{"avatar_url":"https://img.example.com/a.png"}`), &req))

		assert.True(t, req.Set)
		require.NotNil(t, req.AvatarURL)
		assert.Equal(t, "https://img.example.com/a.png", *req.AvatarURL)
	})

	t.Run("explicit null clears", func(t *testing.T) {
		var req UpdateAvatarRequest
		require.NoError(t, json.Unmarshal([]byte(`{"avatar_url":null}`), &req))

		assert.True(t, req.Set)
		assert.Nil(t, req.AvatarURL)
	})

	t.Run("absent key is distinguishable from null", func(t *testing.T) {
		var req UpdateAvatarRequest
		require.NoError(t, json.Unmarshal([]byte(`{}`), &req))

		assert.False(t, req.Set)
		assert.Nil(t, req.AvatarURL)
	})
}

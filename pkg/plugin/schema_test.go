package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInfo(t *testing.T) {
	t.Run("decodes a full payload", func(t *testing.T) {
		data := []byte(`{
			"name": "greeter",
			"description": "Says hello",
			"version": "0.1.0",
			"commands": [
				{"name": "hello", "usage": "hello <lang>", "description": "Greets"}
			]
		}`)

		info, err := decodeInfo(data)
		require.NoError(t, err)
		assert.Equal(t, "greeter", info.Name)
		assert.Equal(t, "0.1.0", info.Version)
		require.Len(t, info.Commands, 1)
		assert.Equal(t, "hello", info.Commands[0].Name)
		assert.Equal(t, "hello <lang>", info.Commands[0].Usage)
	})

	t.Run("rejects payload that is not JSON", func(t *testing.T) {
		_, err := decodeInfo([]byte("not json at all"))
		assert.Error(t, err)
	})

	t.Run("rejects missing required field", func(t *testing.T) {
		data := []byte(`{"name": "greeter", "description": "x", "commands": []}`)

		_, err := decodeInfo(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "version")
	})

	t.Run("rejects wrong field type", func(t *testing.T) {
		data := []byte(`{"name": "greeter", "description": "x", "version": 1, "commands": []}`)

		_, err := decodeInfo(data)
		assert.Error(t, err)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		data := []byte(`{"name": "g", "description": "x", "version": "1.0.0", "commands": [], "extra": true}`)

		_, err := decodeInfo(data)
		assert.Error(t, err)
	})

	t.Run("rejects command missing usage", func(t *testing.T) {
		data := []byte(`{
			"name": "g", "description": "x", "version": "1.0.0",
			"commands": [{"name": "hello", "description": "d"}]
		}`)

		_, err := decodeInfo(data)
		assert.Error(t, err)
	})

	t.Run("empty command list decodes to empty slice", func(t *testing.T) {
		data := []byte(`{"name": "g", "description": "", "version": "1.0.0", "commands": []}`)

		info, err := decodeInfo(data)
		require.NoError(t, err)
		assert.NotNil(t, info.Commands)
		assert.Empty(t, info.Commands)
	})
}

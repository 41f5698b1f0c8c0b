package network_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	network "github.com/ExamTime/acts-as-network"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := network.NewNotFoundError(2, 3, 900)
		assert.Equal(t, "network: couldn't find all records with ids [2 3 900]", err.Error())
	})

	t.Run("IDs", func(t *testing.T) {
		err := network.NewNotFoundError(1, 1, 7)
		assert.Equal(t, []any{1, 1, 7}, err.IDs())
	})

	t.Run("Is", func(t *testing.T) {
		err := network.NewNotFoundError(5)
		assert.True(t, errors.Is(err, network.ErrNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := network.NewNotFoundError(5)
		assert.True(t, network.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, network.IsNotFound(wrapped))

		// Sentinel error
		assert.True(t, network.IsNotFound(network.ErrNotFound))

		// Non-matching error
		assert.False(t, network.IsNotFound(errors.New("other error")))
		assert.False(t, network.IsNotFound(nil))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := network.NewConfigError("friends", "node table is required")
		assert.Equal(t, `network: configuring "friends": node table is required`, err.Error())
	})

	t.Run("ErrorWithoutName", func(t *testing.T) {
		err := network.NewConfigError("", "accessor name must not be empty")
		assert.Equal(t, "network: accessor name must not be empty", err.Error())
	})

	t.Run("Name", func(t *testing.T) {
		err := network.NewConfigError("colleagues", "edge store is required")
		assert.Equal(t, "colleagues", err.Name())
	})

	t.Run("Is", func(t *testing.T) {
		err := network.NewConfigError("friends", "bad")
		assert.True(t, errors.Is(err, network.ErrConfig))
	})

	t.Run("IsConfig", func(t *testing.T) {
		err := network.NewConfigError("friends", "bad")
		assert.True(t, network.IsConfig(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, network.IsConfig(wrapped))

		assert.True(t, network.IsConfig(network.ErrConfig))

		assert.False(t, network.IsConfig(errors.New("other error")))
		assert.False(t, network.IsConfig(nil))
	})

	t.Run("NotConflated", func(t *testing.T) {
		assert.False(t, network.IsNotFound(network.NewConfigError("friends", "bad")))
		assert.False(t, network.IsConfig(network.NewNotFoundError(1)))
	})
}

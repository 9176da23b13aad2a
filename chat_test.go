package parley_test

import (
	"testing"

	"github.com/parley-sh/parley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid request", func(t *testing.T) {
		t.Parallel()
		req := parley.ChatRequest{Prompt: "Hello"}
		assert.NoError(t, req.Validate())
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()
		req := parley.ChatRequest{Prompt: "   "}
		err := req.Validate()
		var pe *parley.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, parley.KindValidation, pe.Kind)
	})

	t.Run("non-positive conversation id", func(t *testing.T) {
		t.Parallel()
		id := 0
		req := parley.ChatRequest{Prompt: "Hello", ConversationID: &id}
		err := req.Validate()
		var pe *parley.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, parley.KindValidation, pe.Kind)
	})
}

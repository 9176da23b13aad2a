package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRename(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		id, title, err := parseRename("7=Trip planning")
		require.NoError(t, err)
		assert.Equal(t, 7, id)
		assert.Equal(t, "Trip planning", title)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		t.Parallel()
		id, title, err := parseRename(" 12 =  Notes ")
		require.NoError(t, err)
		assert.Equal(t, 12, id)
		assert.Equal(t, "Notes", title)
	})

	t.Run("missing separator", func(t *testing.T) {
		t.Parallel()
		_, _, err := parseRename("7 Trip planning")
		require.Error(t, err)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		t.Parallel()
		_, _, err := parseRename("abc=title")
		require.Error(t, err)
	})

	t.Run("non-positive id", func(t *testing.T) {
		t.Parallel()
		_, _, err := parseRename("0=title")
		require.Error(t, err)
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()
		_, _, err := parseRename("7=  ")
		require.Error(t, err)
	})
}

func TestTranscriptPath(t *testing.T) {
	t.Parallel()

	t.Run("synced conversation uses its id", func(t *testing.T) {
		t.Parallel()
		id := 42
		path := transcriptPath("/tmp/transcripts", &id)
		assert.Equal(t, "/tmp/transcripts/42.json", path)
	})

	t.Run("unsynced session gets local name", func(t *testing.T) {
		t.Parallel()
		path := transcriptPath("/tmp/transcripts", nil)
		assert.True(t, strings.HasPrefix(path, "/tmp/transcripts/local-"))
		assert.True(t, strings.HasSuffix(path, ".json"))
	})
}

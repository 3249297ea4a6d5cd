package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNumbered(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("9\n2\n"), &out)

	idx, err := term.Select("Store", []MenuItem{{Label: "memory"}, {Label: "sqlite", Description: "file"}})

	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "[2] sqlite - file")
	assert.Contains(t, out.String(), "Invalid choice. Enter 1-2")
}

func TestSelectCancelled(t *testing.T) {
	term := New(strings.NewReader("0\n"), &bytes.Buffer{})
	_, err := term.Select("Store", []MenuItem{{Label: "memory"}})
	assert.ErrorIs(t, err, ErrCancelled)

	term = New(strings.NewReader(""), &bytes.Buffer{})
	_, err = term.Select("Store", []MenuItem{{Label: "memory"}})
	assert.ErrorIs(t, err, ErrCancelled, "EOF cancels")

	_, err = term.Select("Store", nil)
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("\n9090\n\nno\n"), &out)

	assert.Equal(t, "8080", term.PromptString("Port", "8080"))
	assert.Equal(t, "9090", term.PromptString("Port", "8080"))
	assert.True(t, term.PromptYesNo("Live", true))
	assert.False(t, term.PromptYesNo("Live", true))
	assert.Contains(t, out.String(), "Port [8080]: ")
}

func TestPlainOutputHasNoEscapes(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out)

	term.Success("written")
	term.Warn("careful")

	assert.Equal(t, "[OK] written\n[WARN] careful\n", out.String())
}

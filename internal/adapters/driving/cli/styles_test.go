package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPalette_PlainWhenNotTerminal(t *testing.T) {
	p := newPalette(new(bytes.Buffer))

	assert.Equal(t, "error:", p.fail.Render("error:"))
	assert.Equal(t, "ok", p.ok.Render("ok"))
}

func TestNewPalette_StyledOnTerminal(t *testing.T) {
	old := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	t.Cleanup(func() { isTerminal = old })

	p := newPalette(new(bytes.Buffer))

	assert.True(t, p.fail.GetBold())
	assert.True(t, p.heading.GetUnderline())
}

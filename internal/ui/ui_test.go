package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestRenderBox_Plain(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := RenderBox("Upload summary", []Row{
		{Label: "Total", Value: "7"},
		{Label: "Succeeded", Value: "7"},
	})

	assert.Contains(t, out, "Upload summary")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "Succeeded")
	assert.NotContains(t, out, "\x1b[")
}

func TestList(t *testing.T) {
	var buf bytes.Buffer
	List(&buf, []string{"a.md", "b.md"})
	assert.Equal(t, "  - a.md\n  - b.md\n", buf.String())
}

func TestRender_PlainProfileKeepsText(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	assert.Equal(t, "ok", RenderPass("ok"))
	assert.Equal(t, "warn", RenderWarn("warn"))
	assert.Equal(t, "fail", RenderFail("fail"))
	assert.Equal(t, "hi", RenderAccent("hi"))
	assert.Equal(t, "dim", RenderMuted("dim"))
}

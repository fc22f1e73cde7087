package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[")
	assert.Equal(t, termenv.Ascii, ColorProfile(&buf))
}

func TestNewRenderer(t *testing.T) {
	task := domain.NewTask("t-1", "", domain.ChainRef{RootID: "t-1"})
	require.NoError(t, task.Start())
	require.NoError(t, task.Complete("done"))

	out, err := NewRenderer()(runner.TaskMarkdown(task))
	require.NoError(t, err)
	assert.Contains(t, out, "t-1")
	assert.Contains(t, out, "done")
}

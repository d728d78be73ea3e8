package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(input string) (*Printer, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestPrinterIsPlainOffTerminal(t *testing.T) {
	p, out := newTestPrinter("")
	assert.False(t, p.Styled())

	p.Info("Using cached archive %s", "NyarchLinux.tar.gz")
	p.Warn("Plasma %d detected", 5)
	p.Error("boom")
	p.Success("Kitty configured!")

	assert.Equal(t, "Using cached archive NyarchLinux.tar.gz\nWarning: Plasma 5 detected\nError: boom\nKitty configured!\n", out.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"", true},
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \r\n", true},
		{"n\n", false},
		{"nope\n", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			p, out := newTestPrinter(tt.input)
			got, err := p.Confirm("Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Proceed? [Y/n]: ", out.String())
		})
	}
}

func TestConfirmDefaultNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", false},
		{"", false},
		{"   \n", false},
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			p, out := newTestPrinter(tt.input)
			got, err := p.ConfirmDefaultNo("Installed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Installed? [y/N]: ", out.String())
		})
	}
}

func TestReadLineSequence(t *testing.T) {
	p, _ := newTestPrinter("1 3\nlast")

	first, err := p.ReadLine("> ")
	require.NoError(t, err)
	second, err := p.ReadLine("> ")
	require.NoError(t, err)
	third, err := p.ReadLine("> ")
	require.NoError(t, err)

	assert.Equal(t, "1 3", first)
	assert.Equal(t, "last", second)
	assert.Equal(t, "", third)
}

func TestMenu(t *testing.T) {
	p, out := newTestPrinter("")
	c := catalog.New(
		catalog.Entry{Prompt: "[USER] Theming?"},
		catalog.Entry{Prompt: "[SYSTEM] Kitty?"},
	)

	p.Menu(c.Operations())

	assert.Equal(t, "\n[1] [USER] Theming?\n[2] [SYSTEM] Kitty?\n[0] Do nothing / skip everything\n\n", out.String())
}

func TestBanner(t *testing.T) {
	p, out := newTestPrinter("")
	p.Banner("  /\\_/\\\n ( o.o )\n\n", "Welcome!")
	assert.Equal(t, "  /\\_/\\\n ( o.o )\nWelcome!\n", out.String())

	out.Reset()
	p.Banner("", "Welcome!")
	assert.Equal(t, "Welcome!\n", out.String())
}

func TestReporter(t *testing.T) {
	p, out := newTestPrinter("")
	op := catalog.Operation{ID: 2, Entry: catalog.Entry{Prompt: "Kitty?", Done: "Kitty configured!"}}

	p.Started(op)
	p.Succeeded(op)
	p.Failed(op, fmt.Errorf("apt-get failed"))
	p.Succeeded(catalog.Operation{ID: 3})

	assert.Equal(t, "\n== Kitty? ==\nKitty configured!\nError: [2] failed: apt-get failed\n", out.String())
}

func TestSummary(t *testing.T) {
	p, out := newTestPrinter("")
	p.Summary(catalog.Log{
		Results: []catalog.Result{
			{ID: 1, Prompt: "Theming"},
			{ID: 3, Prompt: "Fetch", Outcome: catalog.Failure(fmt.Errorf("x")), Error: "x"},
		},
		Skipped: []int{4},
	})

	assert.Equal(t, "\n== Summary ==\n[1] Theming\nError: [3] x\nWarning: [4] not run (interrupted)\n", out.String())

	out.Reset()
	p.Summary(catalog.Log{})
	assert.Empty(t, out.String())
}

func TestRenderMarkdownPlain(t *testing.T) {
	p, _ := newTestPrinter("")
	assert.Equal(t, "# Title", p.RenderMarkdown("# Title", 80))
}

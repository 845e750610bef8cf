package console_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/fedexps/internal/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name  string
		frac  float64
		width int
		want  string
	}{
		{"empty", 0, 10, "[..........]"},
		{"half", 0.5, 10, "[#####.....]"},
		{"full", 1, 4, "[####]"},
		{"rounds down", 0.99, 10, "[#########.]"},
		{"clamps high", 1.7, 3, "[###]"},
		{"clamps low", -0.2, 3, "[...]"},
		{"nan", math.NaN(), 2, "[..]"},
		{"zero width", 0.5, 0, "[.]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, console.Bar(tt.frac, tt.width))
		})
	}
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 50, console.BarWidth(200, 20))
	assert.Equal(t, 37, console.BarWidth(80, 40))
	assert.Equal(t, 10, console.BarWidth(20, 40))
}

func TestNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, console.IsTerminal(&buf))
	assert.Equal(t, console.DefaultWidth, console.Width(&buf))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, console.IsTerminal(f))
	assert.Equal(t, console.DefaultWidth, console.Width(f))
}

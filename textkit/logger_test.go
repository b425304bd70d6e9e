package textkit

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlacementIsLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	gen, _ := countingGenerator(Size{W: 1, H: 1})
	a := NewViewAttachment(gen)
	h := NewHost()
	h.SetContainer(&fakeContainer{})
	h.Place(&recSurface{}, a, 3, Rect{W: 1, H: 1})

	out := buf.String()
	assert.Contains(t, out, "generated attachment content")
	assert.Contains(t, out, "placed attachment content")
	assert.Contains(t, out, "charIndex=3")
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}

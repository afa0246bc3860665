package segment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	white = Color{R: 255, G: 255, B: 255, A: 255}
	black = Color{A: 255}
	red   = Color{R: 255, A: 255}
	green = Color{G: 255, A: 255}
	blue  = Color{B: 255, A: 255}
)

func uniformImage(t *testing.T, w, h int, c Color) *RasterImage {
	t.Helper()
	img, err := NewRasterImage(w, h)
	require.NoError(t, err)
	fill(img, c)
	return img
}

func imageFrom(t *testing.T, w, h int, at func(x, y int) Color) *RasterImage {
	t.Helper()
	img, err := NewRasterImage(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.set(x, y, at(x, y))
		}
	}
	return img
}

func noiseImage(t *testing.T, w, h int, seed int64) *RasterImage {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img, err := NewRasterImage(w, h)
	require.NoError(t, err)
	_, _ = rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func countValue(m *Mask, v uint8) int {
	n := 0
	for _, p := range m.Pix {
		if p == v {
			n++
		}
	}
	return n
}

package segment

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) Load() (image.Image, error) {
	return nil, errors.New("boom")
}

func TestComposite_HardColorPurity(t *testing.T) {
	img := noiseImage(t, 20, 15, 3)
	// 部分像素带透明度，硬替换后也必须不透明
	for i := 3; i < len(img.Pix); i += 16 {
		img.Pix[i] = 10
	}
	rng := rand.New(rand.NewSource(9))
	mask := newMask(img.Width, img.Height, 0)
	for i := range mask.Pix {
		if rng.Intn(2) == 1 {
			mask.Pix[i] = MaskForeground
		}
	}
	fillColor := Color{R: 67, G: 142, B: 219, A: 255}

	comp, err := Composite(img, mask, LinearGradient{Stops: []ColorStop{{0, red}, {1, blue}}}, HardColorMode(fillColor))
	require.NoError(t, err)
	require.NoError(t, comp.BackdropErr)

	out := comp.Image
	for i, m := range mask.Pix {
		p := i * 4
		got := Color{R: out.Pix[p], G: out.Pix[p+1], B: out.Pix[p+2], A: out.Pix[p+3]}
		if m == MaskBackground {
			assert.Equal(t, fillColor, got)
		} else {
			assert.Equal(t, Color{R: img.Pix[p], G: img.Pix[p+1], B: img.Pix[p+2], A: 255}, got)
		}
	}
}

func TestComposite_Alpha(t *testing.T) {
	img := uniformImage(t, 3, 1, Color{R: 200, G: 100, B: 0, A: 255})
	mask := &Mask{Width: 3, Height: 1, Pix: []uint8{255, 0, 128}}

	t.Run("纯色背景", func(t *testing.T) {
		comp, err := Composite(img, mask, Solid{Color: Color{R: 0, G: 0, B: 100, A: 255}}, AlphaMode())
		require.NoError(t, err)
		assert.Equal(t, Color{R: 200, G: 100, B: 0, A: 255}, comp.Image.At(0, 0))
		assert.Equal(t, Color{R: 0, G: 0, B: 100, A: 255}, comp.Image.At(1, 0))
		// a = 128/255
		assert.Equal(t, Color{R: 100, G: 50, B: 50, A: 255}, comp.Image.At(2, 0))
	})

	t.Run("透明背景", func(t *testing.T) {
		comp, err := Composite(img, mask, Transparent{}, AlphaMode())
		require.NoError(t, err)
		assert.Equal(t, Color{R: 200, G: 100, B: 0, A: 255}, comp.Image.At(0, 0))
		assert.Equal(t, Color{}, comp.Image.At(1, 0))
		assert.Equal(t, Color{R: 200, G: 100, B: 0, A: 128}, comp.Image.At(2, 0))
	})

	t.Run("nil 背景按透明处理", func(t *testing.T) {
		comp, err := Composite(img, mask, nil, AlphaMode())
		require.NoError(t, err)
		assert.Equal(t, Color{}, comp.Image.At(1, 0))
	})

	t.Run("不修改输入", func(t *testing.T) {
		before := img.Clone()
		_, err := Composite(img, mask, Solid{Color: white}, AlphaMode())
		require.NoError(t, err)
		assert.Equal(t, before.Pix, img.Pix)
	})
}

func TestComposite_BackdropFallback(t *testing.T) {
	img := uniformImage(t, 2, 2, red)
	mask := newMask(2, 2, 0)
	mask.Pix[0] = MaskForeground

	comp, err := Composite(img, mask, ImageBackdrop{Source: failingSource{}}, AlphaMode())
	require.NoError(t, err)
	require.Error(t, comp.BackdropErr)
	assert.Contains(t, comp.BackdropErr.Error(), "boom")
	assert.Equal(t, red, comp.Image.At(0, 0))
	assert.Equal(t, Color{}, comp.Image.At(1, 1))

	comp, err = Composite(img, mask, ImageBackdrop{}, AlphaMode())
	require.NoError(t, err)
	assert.Error(t, comp.BackdropErr)
}

func TestComposite_InvalidInput(t *testing.T) {
	img := uniformImage(t, 2, 2, red)

	_, err := Composite(img, newMask(3, 2, 0), Transparent{}, AlphaMode())
	var invalid *InvalidImageError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "mask size mismatch", invalid.Reason)

	_, err = Composite(&RasterImage{Width: 2, Height: 2, Pix: make([]uint8, 3)}, newMask(2, 2, 0), Transparent{}, AlphaMode())
	assert.True(t, errors.As(err, &invalid))

	_, err = Composite(img, newMask(2, 2, 0), Transparent{}, ReplaceMode{Kind: ReplaceKind(9)})
	assert.Error(t, err)
}

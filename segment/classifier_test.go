package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorDistance(t *testing.T) {
	assert.Zero(t, ColorDistance(white, white))
	assert.InDelta(t, MaxColorDistance, ColorDistance(white, black), 1e-9)
	assert.InDelta(t, 5.0, ColorDistance(Color{R: 3, G: 4}, Color{}), 1e-9)
	// alpha 不参与距离
	assert.Zero(t, ColorDistance(Color{R: 1, A: 0}, Color{R: 1, A: 255}))
}

func TestClassify_UniformImage(t *testing.T) {
	for _, sensitivity := range []float64{0.5, 1, 30, 441} {
		img := uniformImage(t, 9, 5, Color{R: 80, G: 120, B: 200, A: 255})
		ref := SampleBorder(img, 2)
		mask := Classify(img, ref, sensitivity)

		require.Equal(t, img.Width, mask.Width)
		require.Equal(t, img.Height, mask.Height)
		assert.Equal(t, len(mask.Pix), countValue(mask, MaskBackground), "sensitivity %v", sensitivity)
	}
}

func TestClassify_IsolatedBlock(t *testing.T) {
	img := imageFrom(t, 4, 4, func(x, y int) Color {
		if x >= 1 && x <= 2 && y >= 1 && y <= 2 {
			return black
		}
		return white
	})

	mask := Classify(img, SampleBorder(img, 1), 30)

	assert.Equal(t, 12, countValue(mask, MaskBackground))
	assert.Equal(t, 4, countValue(mask, MaskForeground))
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			assert.Equal(t, MaskForeground, mask.At(x, y), "(%d,%d)", x, y)
		}
	}
}

func TestClassify_SaturatingThreshold(t *testing.T) {
	img := noiseImage(t, 17, 11, 7)
	mask := Classify(img, SampleBorder(img, 1), SensitivityLimit)
	assert.Equal(t, len(mask.Pix), countValue(mask, MaskBackground))
}

func TestClassify_ZeroSensitivityExactMatchOnly(t *testing.T) {
	almost := Color{R: 254, G: 255, B: 255, A: 255}
	img := imageFrom(t, 5, 5, func(x, y int) Color {
		if x == 4 && y == 2 {
			return almost
		}
		return white
	})

	for _, s := range []float64{0, -10} {
		mask := Classify(img, white, s)
		assert.Equal(t, MaskForeground, mask.At(4, 2))
		assert.Equal(t, 24, countValue(mask, MaskBackground))
	}
}

func TestClassify_Connectivity(t *testing.T) {
	t.Run("封闭区域不被吞掉", func(t *testing.T) {
		// 白色边框，黑色圆环，中心白色
		img := imageFrom(t, 5, 5, func(x, y int) Color {
			if x == 0 || y == 0 || x == 4 || y == 4 || (x == 2 && y == 2) {
				return white
			}
			return black
		})
		mask := Classify(img, white, 30)
		assert.Equal(t, MaskForeground, mask.At(2, 2))
		assert.Equal(t, 16, countValue(mask, MaskBackground))
	})

	t.Run("只沿 4 邻域扩展", func(t *testing.T) {
		// (1,1) 与边缘相连，中心只与它对角相邻
		img := imageFrom(t, 5, 5, func(x, y int) Color {
			if x == 0 || y == 0 || x == 4 || y == 4 || (x == 1 && y == 1) || (x == 2 && y == 2) {
				return white
			}
			return black
		})
		mask := Classify(img, white, 30)
		assert.Equal(t, MaskBackground, mask.At(1, 1))
		assert.Equal(t, MaskForeground, mask.At(2, 2))
	})

	t.Run("细窄通道会漏进主体", func(t *testing.T) {
		// 浅灰主体经由一个像素宽的通道连到白色边缘，整体被判为背景
		light := Color{R: 240, G: 240, B: 240, A: 255}
		img := imageFrom(t, 7, 7, func(x, y int) Color {
			switch {
			case x == 0 || y == 0 || x == 6 || y == 6:
				return white
			case x >= 2 && x <= 4 && y >= 2 && y <= 4:
				return light
			case x == 3 && y == 1:
				return light
			default:
				return black
			}
		})
		mask := Classify(img, white, 30)
		for y := 2; y <= 4; y++ {
			for x := 2; x <= 4; x++ {
				assert.Equal(t, MaskBackground, mask.At(x, y), "(%d,%d)", x, y)
			}
		}
		assert.Equal(t, MaskForeground, mask.At(1, 1))
	})
}

func TestClassify_Deterministic(t *testing.T) {
	img := noiseImage(t, 32, 24, 42)
	ref := SampleBorder(img, 3)
	a := Classify(img, ref, 120)
	b := Classify(img, ref, 120)
	assert.Equal(t, a.Pix, b.Pix)
}

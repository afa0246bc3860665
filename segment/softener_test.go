package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// farFromBoundary 判断 (x,y) 的 Chebyshev 半径 r 内（复制边界）是否全部同值
func farFromBoundary(m *Mask, x, y, r int) bool {
	v := m.At(x, y)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if m.At(clampIndex(x+dx, m.Width), clampIndex(y+dy, m.Height)) != v {
				return false
			}
		}
	}
	return true
}

func TestSoften_Locality(t *testing.T) {
	img := imageFrom(t, 16, 12, func(x, y int) Color {
		if x >= 5 && x <= 10 && y >= 4 && y <= 8 {
			return black
		}
		return white
	})
	binary := Classify(img, white, 30)

	for _, r := range []int{1, 2, 3} {
		soft := Soften(binary, r)
		require.Equal(t, binary.Width, soft.Width)
		require.Equal(t, binary.Height, soft.Height)

		blended := 0
		for y := 0; y < binary.Height; y++ {
			for x := 0; x < binary.Width; x++ {
				got := soft.At(x, y)
				if farFromBoundary(binary, x, y, r) {
					assert.Equal(t, binary.At(x, y), got, "r=%d (%d,%d)", r, x, y)
				}
				if got != 0 && got != 255 {
					blended++
				}
			}
		}
		assert.Positive(t, blended, "r=%d", r)
	}
}

func TestSoften_BoxAverage(t *testing.T) {
	// 3x1 掩码 [0 255 0]，r=1：中间 = 255*3/9 ≈ 85，两端按复制边界 = 255*3/9
	m := &Mask{Width: 3, Height: 1, Pix: []uint8{0, 255, 0}}
	soft := Soften(m, 1)
	assert.Equal(t, []uint8{85, 85, 85}, soft.Pix)
}

func TestSoften_ZeroRadiusCopies(t *testing.T) {
	m := &Mask{Width: 2, Height: 1, Pix: []uint8{0, 255}}
	soft := Soften(m, 0)
	assert.Equal(t, m.Pix, soft.Pix)

	soft.Pix[0] = 7
	assert.Equal(t, uint8(0), m.Pix[0])
}

func TestSoften_LargeRadius(t *testing.T) {
	for _, radius := range []int{MaxSoftenRadius, 3000, 1 << 20} {
		full := Soften(newMask(3, 3, MaskForeground), radius)
		assert.Equal(t, 9, countValue(full, MaskForeground), "radius %d", radius)

		empty := Soften(newMask(3, 3, MaskBackground), radius)
		assert.Equal(t, 9, countValue(empty, MaskBackground), "radius %d", radius)
	}

	// 超过上限与上限本身结果相同
	m := newMask(9, 1, MaskBackground)
	m.Pix[4] = MaskForeground
	assert.Equal(t, Soften(m, MaxSoftenRadius).Pix, Soften(m, 5000).Pix)
}

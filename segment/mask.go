package segment

import "image"

const (
	// MaskBackground 二值掩码中的背景值
	MaskBackground uint8 = 0
	// MaskForeground 二值掩码中的前景值
	MaskForeground uint8 = 255
)

// Mask 每像素一个字节，尺寸与来源图像一致
//
// 分类之后是二值（0/255），柔化之后是连续值，直接作为 alpha 使用。
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

func newMask(width, height int, fill uint8) *Mask {
	pix := make([]uint8, width*height)
	if fill != 0 {
		for i := range pix {
			pix[i] = fill
		}
	}
	return &Mask{Width: width, Height: height, Pix: pix}
}

// At 返回 (x, y) 处的掩码值
func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Clone 深拷贝
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Gray 转为 *image.Gray，方便调试输出
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(g.Pix, m.Pix)
	return g
}

// Coverage 前景占比：掩码值之和 / (255 * 像素数)
func (m *Mask) Coverage() float64 {
	if len(m.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range m.Pix {
		sum += uint64(v)
	}
	return float64(sum) / (255 * float64(len(m.Pix)))
}

// ForegroundBounds 计算掩码值 > threshold 的像素包围盒
// 没有前景时返回空矩形和 false
func (m *Mask) ForegroundBounds(threshold uint8) (image.Rectangle, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1

	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			if m.Pix[row+x] > threshold {
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

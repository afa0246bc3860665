package segment

import (
	"fmt"
	"image"
	"image/draw"
)

// Color 非预乘的 RGBA 颜色
type Color struct {
	R, G, B, A uint8
}

// Opaque 返回 alpha 为 255 的同色
func (c Color) Opaque() Color {
	c.A = 255
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// RasterImage 行优先的 RGBA 像素缓冲，每像素 4 字节（straight alpha）
//
// 各阶段只读取输入并分配新的输出，不在原缓冲上修改。
type RasterImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// InvalidImageError 零面积或缓冲长度不匹配的输入
type InvalidImageError struct {
	Width  int
	Height int
	Len    int
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image %dx%d (%d bytes): %s", e.Width, e.Height, e.Len, e.Reason)
}

// NewRasterImage 分配一块全透明的画布
func NewRasterImage(width, height int) (*RasterImage, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidImageError{Width: width, Height: height, Reason: "zero area"}
	}
	return &RasterImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}, nil
}

// NewRasterImageFromPix 复制 pix 构造图像
func NewRasterImageFromPix(width, height int, pix []uint8) (*RasterImage, error) {
	img := &RasterImage{Width: width, Height: height, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	dst := make([]uint8, len(pix))
	copy(dst, pix)
	img.Pix = dst
	return img, nil
}

// Validate 检查尺寸与缓冲长度
func (img *RasterImage) Validate() error {
	if img == nil {
		return &InvalidImageError{Reason: "nil image"}
	}
	if img.Width <= 0 || img.Height <= 0 {
		return &InvalidImageError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Reason: "zero area"}
	}
	if len(img.Pix) != img.Width*img.Height*4 {
		return &InvalidImageError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Reason: "buffer length mismatch"}
	}
	return nil
}

// At 返回 (x, y) 处的颜色，调用方保证坐标合法
func (img *RasterImage) At(x, y int) Color {
	i := (y*img.Width + x) * 4
	return Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
}

func (img *RasterImage) set(x, y int, c Color) {
	i := (y*img.Width + x) * 4
	img.Pix[i] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// Clone 深拷贝
func (img *RasterImage) Clone() *RasterImage {
	pix := make([]uint8, len(img.Pix))
	copy(pix, img.Pix)
	return &RasterImage{Width: img.Width, Height: img.Height, Pix: pix}
}

// NRGBA 转为标准库的 *image.NRGBA，供编码器使用
func (img *RasterImage) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	copy(out.Pix, img.Pix)
	return out
}

// FromImage 把任意 image.Image 转成 RasterImage
func FromImage(src image.Image) (*RasterImage, error) {
	if src == nil {
		return nil, &InvalidImageError{Reason: "nil image"}
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &InvalidImageError{Width: b.Dx(), Height: b.Dy(), Reason: "zero area"}
	}
	nrgba := toNRGBA(src)
	img := &RasterImage{Width: b.Dx(), Height: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy()*4)}
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		copy(img.Pix[y*rowLen:(y+1)*rowLen], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+rowLen])
	}
	return img, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

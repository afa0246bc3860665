package segment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // 背景图解码
	_ "image/png"
	"math"
	"sort"

	"github.com/chaos-io/cutout/util"
	"github.com/disintegration/imaging"
)

// Background 合成时使用的背景，只有本包内定义的几种变体
type Background interface {
	render(w, h int) (*RasterImage, error)
}

// Transparent 全透明背景
type Transparent struct{}

// Solid 纯色背景
type Solid struct {
	Color Color
}

// ColorStop 渐变色标，Offset 取值 [0, 1]
type ColorStop struct {
	Offset float64
	Color  Color
}

// Point 归一化画布坐标，(0,0) 左上角，(1,1) 右下角
type Point struct {
	X, Y float64
}

// LinearGradient 线性渐变
//
// Angle 单位为度，0 表示从左到右，90 表示从上到下。渐变线穿过画布中心，
// 长度等于画布对角线。
type LinearGradient struct {
	Stops []ColorStop
	Angle float64
}

// RadialGradient 径向渐变，从 Center 向最远的画布角扩散
type RadialGradient struct {
	Stops  []ColorStop
	Center Point
}

// ImageBackdrop 图片背景，等比缩放铺满画布（cover）后居中裁剪
type ImageBackdrop struct {
	Source ImageSource
}

// ImageSource 背景图来源
type ImageSource interface {
	Load() (image.Image, error)
}

// RasterSource 已解码的图像
type RasterSource struct {
	Image *RasterImage
}

func (s RasterSource) Load() (image.Image, error) {
	if err := s.Image.Validate(); err != nil {
		return nil, err
	}
	return s.Image.NRGBA(), nil
}

// EncodedSource 编码后的图片字节（png/jpeg，以及调用方注册过的其他格式）
type EncodedSource struct {
	Data []byte
}

func (s EncodedSource) Load() (image.Image, error) {
	if len(s.Data) == 0 {
		return nil, errors.New("empty backdrop data")
	}
	img, _, err := image.Decode(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("decode backdrop: %w", err)
	}
	return img, nil
}

// FileSource 本地图片文件
type FileSource struct {
	Path string
}

func (s FileSource) Load() (image.Image, error) {
	img, err := util.OpenImage(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open backdrop %s: %w", s.Path, err)
	}
	return img, nil
}

func (Transparent) render(w, h int) (*RasterImage, error) {
	return NewRasterImage(w, h)
}

func (s Solid) render(w, h int) (*RasterImage, error) {
	canvas, err := NewRasterImage(w, h)
	if err != nil {
		return nil, err
	}
	fill(canvas, s.Color)
	return canvas, nil
}

func (g LinearGradient) render(w, h int) (*RasterImage, error) {
	canvas, err := NewRasterImage(w, h)
	if err != nil {
		return nil, err
	}
	stops := sortStops(g.Stops)
	offset := g.offsetFunc(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			canvas.set(x, y, colorAtOffset(stops, offset(x, y)))
		}
	}
	return canvas, nil
}

// offsetFunc 像素中心在渐变方向上的投影除以画布对角线长度，以画布中心为 0.5
//
// 只有角度与对角线一致时角点才落在 0 和 1；角度为 0 时左右边缘约为 0.5 ± w/(2·diag)。
func (g LinearGradient) offsetFunc(w, h int) func(x, y int) float64 {
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2
	diag := math.Hypot(float64(w), float64(h))
	return func(x, y int) float64 {
		px := float64(x) + 0.5 - cx
		py := float64(y) + 0.5 - cy
		return (px*dx+py*dy)/diag + 0.5
	}
}

func (g RadialGradient) render(w, h int) (*RasterImage, error) {
	canvas, err := NewRasterImage(w, h)
	if err != nil {
		return nil, err
	}
	stops := sortStops(g.Stops)
	cx, cy := g.Center.X*float64(w), g.Center.Y*float64(h)

	// 到最远角的距离
	radius := 0.0
	for _, corner := range [][2]float64{{0, 0}, {float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}} {
		radius = math.Max(radius, math.Hypot(corner[0]-cx, corner[1]-cy))
	}
	if radius == 0 {
		fill(canvas, colorAtOffset(stops, 0))
		return canvas, nil
	}

	for y := 0; y < h; y++ {
		py := float64(y) + 0.5 - cy
		for x := 0; x < w; x++ {
			px := float64(x) + 0.5 - cx
			canvas.set(x, y, colorAtOffset(stops, math.Hypot(px, py)/radius))
		}
	}
	return canvas, nil
}

func (b ImageBackdrop) render(w, h int) (*RasterImage, error) {
	if b.Source == nil {
		return nil, errors.New("backdrop source is nil")
	}
	src, err := b.Source.Load()
	if err != nil {
		return nil, err
	}
	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, &InvalidImageError{Width: sb.Dx(), Height: sb.Dy(), Reason: "empty backdrop"}
	}

	sw, sh, off := coverGeometry(sb.Dx(), sb.Dy(), w, h)
	scaled := imaging.Resize(src, sw, sh, imaging.Linear)
	cropped := imaging.Crop(scaled, image.Rect(off.X, off.Y, off.X+w, off.Y+h))
	return FromImage(cropped)
}

// coverGeometry 计算 cover 缩放后的尺寸以及居中裁剪的偏移
// 较短的一边（相对画布）恰好填满画布，另一边居中裁掉多余部分
func coverGeometry(srcW, srcH, dstW, dstH int) (scaledW, scaledH int, offset image.Point) {
	scale := math.Max(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	scaledW = max(dstW, int(math.Round(float64(srcW)*scale)))
	scaledH = max(dstH, int(math.Round(float64(srcH)*scale)))
	offset = image.Pt((scaledW-dstW)/2, (scaledH-dstH)/2)
	return scaledW, scaledH, offset
}

func fill(canvas *RasterImage, c Color) {
	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = c.R
		canvas.Pix[i+1] = c.G
		canvas.Pix[i+2] = c.B
		canvas.Pix[i+3] = c.A
	}
}

// sortStops 拷贝并按 offset 排序，offset 夹到 [0, 1]
func sortStops(stops []ColorStop) []ColorStop {
	sorted := make([]ColorStop, len(stops))
	for i, s := range stops {
		if math.IsNaN(s.Offset) {
			s.Offset = 0
		}
		s.Offset = math.Min(1, math.Max(0, s.Offset))
		sorted[i] = s
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

// colorAtOffset 在已排序的色标之间做 sRGB 线性插值
func colorAtOffset(stops []ColorStop, t float64) Color {
	if len(stops) == 0 {
		return Color{}
	}
	if math.IsNaN(t) || t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		f := (t - a.Offset) / span
		return Color{
			R: lerp(a.Color.R, b.Color.R, f),
			G: lerp(a.Color.G, b.Color.G, f),
			B: lerp(a.Color.B, b.Color.B, f),
			A: lerp(a.Color.A, b.Color.A, f),
		}
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b uint8, f float64) uint8 {
	return clamp255(float64(a) + (float64(b)-float64(a))*f)
}

func clamp255(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

package segment

import "math"

// SampleBorder 按 stride 遍历图像四条边，返回采样像素 RGB 的算术平均
//
// 每条边至少采样第一个像素，所以 1x1 或 stride >= min(w,h) 时仍有结果。
// 返回颜色的 alpha 恒为 255。
func SampleBorder(img *RasterImage, stride int) Color {
	var sumR, sumG, sumB, n float64
	walkBorder(img, stride, func(c Color) {
		sumR += float64(c.R)
		sumG += float64(c.G)
		sumB += float64(c.B)
		n++
	})
	if n == 0 {
		return Color{A: 255}
	}
	return Color{
		R: uint8(math.Round(sumR / n)),
		G: uint8(math.Round(sumG / n)),
		B: uint8(math.Round(sumB / n)),
		A: 255,
	}
}

// BorderSpread 采样边缘像素到 ref 的平均距离，数值越大说明背景越杂
func BorderSpread(img *RasterImage, ref Color, stride int) float64 {
	var sum, n float64
	walkBorder(img, stride, func(c Color) {
		sum += ColorDistance(c, ref)
		n++
	})
	if n == 0 {
		return 0
	}
	return sum / n
}

// walkBorder 依次访问上、下、左、右四条边上按 stride 间隔的像素
func walkBorder(img *RasterImage, stride int, visit func(Color)) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return
	}
	if stride < 1 {
		stride = 1
	}
	w, h := img.Width, img.Height

	for x := 0; x < w; x += stride {
		visit(img.At(x, 0))
	}
	for x := 0; x < w; x += stride {
		visit(img.At(x, h-1))
	}
	for y := 0; y < h; y += stride {
		visit(img.At(0, y))
	}
	for y := 0; y < h; y += stride {
		visit(img.At(w-1, y))
	}
}

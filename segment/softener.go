package segment

// Soften 对掩码做 (2r+1)^2 的均值滤波（盒式滤波），边缘按复制边界处理
//
// 输出是连续值掩码：远离分类边界超过 r 的像素仍然精确为 0 或 255，
// 边界附近得到 0 与 255 的混合值，用作平滑的 alpha 过渡。
// radius <= 0 时返回副本，超过 MaxSoftenRadius 时按 MaxSoftenRadius 处理。
func Soften(mask *Mask, radius int) *Mask {
	if radius <= 0 {
		return mask.Clone()
	}
	radius = min(radius, MaxSoftenRadius)
	w, h := mask.Width, mask.Height
	window := 2*radius + 1
	area := uint64(window * window)

	// 横向求和
	rows := make([]uint64, w*h)
	for y := 0; y < h; y++ {
		src := mask.Pix[y*w : (y+1)*w]
		dst := rows[y*w : (y+1)*w]
		var sum uint64
		for dx := -radius; dx <= radius; dx++ {
			sum += uint64(src[clampIndex(dx, w)])
		}
		dst[0] = sum
		for x := 1; x < w; x++ {
			sum += uint64(src[clampIndex(x+radius, w)])
			sum -= uint64(src[clampIndex(x-radius-1, w)])
			dst[x] = sum
		}
	}

	// 纵向求和并取平均
	out := newMask(w, h, 0)
	for x := 0; x < w; x++ {
		var sum uint64
		for dy := -radius; dy <= radius; dy++ {
			sum += rows[clampIndex(dy, h)*w+x]
		}
		out.Pix[x] = uint8(min((sum+area/2)/area, 255))
		for y := 1; y < h; y++ {
			sum += rows[clampIndex(y+radius, h)*w+x]
			sum -= rows[clampIndex(y-radius-1, h)*w+x]
			out.Pix[y*w+x] = uint8(min((sum+area/2)/area, 255))
		}
	}

	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

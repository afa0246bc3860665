package segment

// Classify 从边缘出发的多源 BFS 泛洪，输出二值掩码
//
// 种子是所有边缘像素。像素被并入背景当且仅当它未被访问过且与 ref 的距离满足
// isBackground；扩展只走 4 邻域，因此背景区域只能沿着一条连续的匹配像素链
// 从边缘长进来。没有被并入的像素都是前景。
//
// 与背景颜色接近、又经由细窄匹配通道连到边缘的主体区域会被一起吃掉，这是
// 该启发式的已知行为，这里保持不变。
func Classify(img *RasterImage, ref Color, sensitivity float64) *Mask {
	w, h := img.Width, img.Height
	n := w * h
	mask := newMask(w, h, MaskForeground)
	visited := make([]bool, n)
	queue := make([]int32, 0, n)

	try := func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		p := idx * 4
		c := Color{R: img.Pix[p], G: img.Pix[p+1], B: img.Pix[p+2]}
		if !isBackground(c, ref, sensitivity) {
			return
		}
		mask.Pix[idx] = MaskBackground
		queue = append(queue, int32(idx))
	}

	for x := 0; x < w; x++ {
		try(x)
		try((h-1)*w + x)
	}
	for y := 1; y < h-1; y++ {
		try(y * w)
		try(y*w + w - 1)
	}

	for head := 0; head < len(queue); head++ {
		idx := int(queue[head])
		x := idx % w
		if x > 0 {
			try(idx - 1)
		}
		if x < w-1 {
			try(idx + 1)
		}
		if idx >= w {
			try(idx - w)
		}
		if idx < n-w {
			try(idx + w)
		}
	}

	return mask
}

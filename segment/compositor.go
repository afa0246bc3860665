package segment

import "fmt"

// Composition 合成结果
type Composition struct {
	Image *RasterImage
	// BackdropErr 背景图加载失败时非空，此时已用透明背景代替，调用方只需记录日志
	BackdropErr error
}

// Composite 把原图按掩码合成到背景上，输出与原图同尺寸
//
// Alpha 模式：先渲染背景画布，再以 mask/255（乘以原图自身 alpha）为不透明度做 over 合成，
// 画布不透明时即 out = src*a + dst*(1-a)。
// HardColor 模式：背景像素写成填充色，前景像素原样复制，全部不透明，不做任何混合；
// 这一模式不使用 bg。
func Composite(img *RasterImage, mask *Mask, bg Background, mode ReplaceMode) (*Composition, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if mask == nil || mask.Width != img.Width || mask.Height != img.Height || len(mask.Pix) != img.Width*img.Height {
		return nil, &InvalidImageError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Reason: "mask size mismatch"}
	}

	switch mode.Kind {
	case ReplaceHardColor:
		return &Composition{Image: hardReplace(img, mask, mode.Fill.Opaque())}, nil
	case ReplaceAlpha:
		return alphaComposite(img, mask, bg)
	default:
		return nil, fmt.Errorf("unknown replace mode %v", mode.Kind)
	}
}

func hardReplace(img *RasterImage, mask *Mask, fillColor Color) *RasterImage {
	out := &RasterImage{Width: img.Width, Height: img.Height, Pix: make([]uint8, len(img.Pix))}
	for i, m := range mask.Pix {
		p := i * 4
		if m == MaskBackground {
			out.Pix[p] = fillColor.R
			out.Pix[p+1] = fillColor.G
			out.Pix[p+2] = fillColor.B
		} else {
			out.Pix[p] = img.Pix[p]
			out.Pix[p+1] = img.Pix[p+1]
			out.Pix[p+2] = img.Pix[p+2]
		}
		out.Pix[p+3] = 255
	}
	return out
}

func alphaComposite(img *RasterImage, mask *Mask, bg Background) (*Composition, error) {
	if bg == nil {
		bg = Transparent{}
	}
	result := &Composition{}

	canvas, err := bg.render(img.Width, img.Height)
	if err != nil {
		result.BackdropErr = fmt.Errorf("render backdrop: %w", err)
		if canvas, err = (Transparent{}).render(img.Width, img.Height); err != nil {
			return nil, err
		}
	}

	for i, m := range mask.Pix {
		p := i * 4
		a := float64(m) * float64(img.Pix[p+3]) / (255 * 255)
		da := float64(canvas.Pix[p+3]) / 255
		outA := a + da*(1-a)
		if outA <= 0 {
			canvas.Pix[p], canvas.Pix[p+1], canvas.Pix[p+2], canvas.Pix[p+3] = 0, 0, 0, 0
			continue
		}
		for c := 0; c < 3; c++ {
			s := float64(img.Pix[p+c])
			d := float64(canvas.Pix[p+c])
			canvas.Pix[p+c] = clamp255((s*a + d*da*(1-a)) / outA)
		}
		canvas.Pix[p+3] = clamp255(outA * 255)
	}

	result.Image = canvas
	return result, nil
}

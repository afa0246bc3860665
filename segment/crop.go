package segment

import (
	"errors"
	"image"
)

// ErrNoForeground 掩码中没有前景
var ErrNoForeground = errors.New("no foreground detected")

// CropToForeground 按前景包围盒裁剪结果图
//
// padding 为包围盒四周额外保留的像素；square 为 true 时以包围盒中心裁成正方形，
// 边长取包围盒较长的一边。裁剪区域不会超出图像。
func CropToForeground(img *RasterImage, mask *Mask, padding int, square bool) (*RasterImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if mask == nil || mask.Width != img.Width || mask.Height != img.Height {
		return nil, &InvalidImageError{Width: img.Width, Height: img.Height, Len: len(img.Pix), Reason: "mask size mismatch"}
	}
	bbox, ok := mask.ForegroundBounds(127)
	if !ok {
		return nil, ErrNoForeground
	}

	rect := bbox.Inset(-max(padding, 0))
	if square {
		cx := (rect.Min.X + rect.Max.X) / 2
		cy := (rect.Min.Y + rect.Max.Y) / 2
		half := (max(rect.Dx(), rect.Dy()) + 1) / 2
		rect = image.Rect(cx-half, cy-half, cx+half, cy+half)
	}
	rect = rect.Intersect(image.Rect(0, 0, img.Width, img.Height))
	if rect.Empty() {
		return nil, ErrNoForeground
	}

	out := &RasterImage{Width: rect.Dx(), Height: rect.Dy(), Pix: make([]uint8, rect.Dx()*rect.Dy()*4)}
	rowLen := rect.Dx() * 4
	for y := 0; y < rect.Dy(); y++ {
		src := ((rect.Min.Y+y)*img.Width + rect.Min.X) * 4
		copy(out.Pix[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	return out, nil
}

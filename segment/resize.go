package segment

import (
	"github.com/nfnt/resize"
)

// resizeWithinMax 缩放到最长边 <= maxSize，maxSize <= 0 或已满足时原样返回
func resizeWithinMax(img *RasterImage, maxSize int) (*RasterImage, float64, error) {
	longest := max(img.Width, img.Height)
	if maxSize <= 0 || longest <= maxSize {
		return img, 1.0, nil
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(img.Width)*scale))
	newH := max(1, int(float64(img.Height)*scale))

	resized := resize.Resize(uint(newW), uint(newH), img.NRGBA(), resize.Lanczos3)
	out, err := FromImage(resized)
	if err != nil {
		return nil, 0, err
	}
	return out, scale, nil
}

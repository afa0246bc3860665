package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // 注册解码器
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/chaos-io/cutout/segment"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format 输出编码格式
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// DefaultJPEGQuality jpeg 默认质量
const DefaultJPEGQuality = 92

// ParseFormat 解析格式名，空字符串默认 png
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// ContentType 对应的 MIME 类型
func (f Format) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext 文件扩展名（带点）
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Decode 把上传的图片解码为 RasterImage，返回识别出的格式名
func Decode(r io.Reader) (*segment.RasterImage, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	raster, err := segment.FromImage(img)
	if err != nil {
		return nil, format, err
	}
	return raster, format, nil
}

// DecodeBytes Decode 的字节版本
func DecodeBytes(data []byte) (*segment.RasterImage, string, error) {
	return Decode(bytes.NewReader(data))
}

// Encode 编码结果图。png 保留 alpha；jpeg 没有 alpha，先按白底展平
func Encode(w io.Writer, img *segment.RasterImage, format Format, quality int) error {
	if err := img.Validate(); err != nil {
		return err
	}
	switch format {
	case PNG, "":
		return png.Encode(w, img.NRGBA())
	case JPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		flat := img.NRGBA()
		flatten(flat, 255, 255, 255)
		return jpeg.Encode(w, flat, &jpeg.Options{Quality: quality})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// EncodeBytes Encode 的字节版本
func EncodeBytes(img *segment.RasterImage, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten 按 alpha 把像素与底色 (r,g,b) 混合，并设为不透明
func flatten(img *image.NRGBA, r, g, b uint8) {
	bg := [3]float64{float64(r), float64(g), float64(b)}
	for i := 0; i < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3]) / 255.0
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = uint8(float64(img.Pix[i+c])*a + bg[c]*(1-a) + 0.5)
		}
		img.Pix[i+3] = 255
	}
}

// Package params 把命令行参数和表单字段解析成 segment 的配置值
package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chaos-io/cutout/segment"
	"github.com/lucasb-eyer/go-colorful"
)

// 背景类型名
const (
	BackgroundTransparent = "transparent"
	BackgroundSolid       = "solid"
	BackgroundLinear      = "linear"
	BackgroundRadial      = "radial"
	BackgroundImage       = "image"
)

// 替换模式名
const (
	ModeAlpha = "alpha"
	ModeHard  = "hard"
)

var ErrMissingBackdrop = errors.New("image background requires a backdrop")

// ParseColor 支持 #rgb、#rrggbb、#rrggbbaa 以及 transparent
func ParseColor(s string) (segment.Color, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "transparent") {
		return segment.Color{}, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return segment.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}

	if len(s) != 4 && len(s) != 7 {
		return segment.Color{}, fmt.Errorf("invalid color %q", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return segment.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return segment.Color{R: r, G: g, B: b, A: alpha}, nil
}

// ParseStops 解析 "#fff@0,#000@1"；省略 offset 时均匀分布
func ParseStops(s string) ([]segment.ColorStop, error) {
	parts := strings.Split(s, ",")
	stops := make([]segment.ColorStop, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		colorPart, offsetPart, hasOffset := strings.Cut(part, "@")
		c, err := ParseColor(colorPart)
		if err != nil {
			return nil, err
		}

		offset := 0.0
		if hasOffset {
			offset, err = strconv.ParseFloat(strings.TrimSpace(offsetPart), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid stop offset %q: %w", offsetPart, err)
			}
		} else if len(parts) > 1 {
			offset = float64(i) / float64(len(parts)-1)
		}
		stops = append(stops, segment.ColorStop{Offset: offset, Color: c})
	}
	if len(stops) == 0 {
		return nil, errors.New("gradient needs at least one color stop")
	}
	return stops, nil
}

// ParsePoint 解析 "x,y"，空字符串返回画布中心
func ParsePoint(s string) (segment.Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return segment.Point{X: 0.5, Y: 0.5}, nil
	}
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return segment.Point{}, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return segment.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return segment.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return segment.Point{X: x, Y: y}, nil
}

// BackgroundOptions 背景的文本描述
type BackgroundOptions struct {
	Kind   string
	Color  string
	Stops  string
	Angle  float64
	Center string
	// Source 图片背景来源，Kind 为 image 时必填
	Source segment.ImageSource
}

// ParseBackground 根据 Kind 构造背景
func ParseBackground(o BackgroundOptions) (segment.Background, error) {
	switch strings.ToLower(strings.TrimSpace(o.Kind)) {
	case "", BackgroundTransparent:
		return segment.Transparent{}, nil
	case BackgroundSolid:
		c, err := ParseColor(defaultString(o.Color, "#ffffff"))
		if err != nil {
			return nil, err
		}
		return segment.Solid{Color: c}, nil
	case BackgroundLinear:
		stops, err := ParseStops(o.Stops)
		if err != nil {
			return nil, err
		}
		return segment.LinearGradient{Stops: stops, Angle: o.Angle}, nil
	case BackgroundRadial:
		stops, err := ParseStops(o.Stops)
		if err != nil {
			return nil, err
		}
		center, err := ParsePoint(o.Center)
		if err != nil {
			return nil, err
		}
		return segment.RadialGradient{Stops: stops, Center: center}, nil
	case BackgroundImage:
		if o.Source == nil {
			return nil, ErrMissingBackdrop
		}
		return segment.ImageBackdrop{Source: o.Source}, nil
	default:
		return nil, fmt.Errorf("unknown background %q", o.Kind)
	}
}

// ParseMode alpha 或 hard；hard 模式使用 fill 作为填充色（默认白色）
func ParseMode(mode, fill string) (segment.ReplaceMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAlpha:
		return segment.AlphaMode(), nil
	case ModeHard, "hardcolor", "hard-color":
		c, err := ParseColor(defaultString(fill, "#ffffff"))
		if err != nil {
			return segment.ReplaceMode{}, err
		}
		return segment.HardColorMode(c), nil
	default:
		return segment.ReplaceMode{}, fmt.Errorf("unknown replace mode %q", mode)
	}
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

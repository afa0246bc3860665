package segment

import (
	"fmt"
	"math"
)

// ReplaceKind 背景替换方式
type ReplaceKind int

const (
	// ReplaceAlpha 柔化掩码后按 alpha 合成到背景上
	ReplaceAlpha ReplaceKind = iota
	// ReplaceHardColor 不做柔化，背景像素直接写成填充色（证件照）
	ReplaceHardColor
)

func (k ReplaceKind) String() string {
	switch k {
	case ReplaceAlpha:
		return "alpha"
	case ReplaceHardColor:
		return "hard"
	default:
		return fmt.Sprintf("ReplaceKind(%d)", int(k))
	}
}

// ReplaceMode Alpha | HardColor(fill)
type ReplaceMode struct {
	Kind ReplaceKind
	Fill Color // 仅 ReplaceHardColor 使用
}

// AlphaMode alpha 合成
func AlphaMode() ReplaceMode {
	return ReplaceMode{Kind: ReplaceAlpha}
}

// HardColorMode 用 fill 硬替换背景
func HardColorMode(fill Color) ReplaceMode {
	return ReplaceMode{Kind: ReplaceHardColor, Fill: fill.Opaque()}
}

const (
	// SensitivityLimit 灵敏度上限，略大于 MaxColorDistance，取到上限时整图都是背景
	SensitivityLimit = 442.0
	// DefaultSensitivity 默认灵敏度
	DefaultSensitivity = 40.0
	// DefaultMaxDimension 默认最长边
	DefaultMaxDimension = 1024
	// DefaultSampleStride 默认边缘采样步长
	DefaultSampleStride = 2
	// DefaultSoftenRadius 默认柔化半径
	DefaultSoftenRadius = 1
	// MaxSoftenRadius 柔化半径上限
	MaxSoftenRadius = 256
)

// Config 单次分割的参数
type Config struct {
	// Sensitivity 颜色距离阈值，与 ColorDistance 同单位 (0..~441)
	Sensitivity float64
	// MaxDimension 预处理缩放的最长边，0 表示不缩放
	MaxDimension int
	// SampleStride 边缘采样步长
	SampleStride int
	// SoftenRadius 柔化半径，只在 alpha 模式下生效
	SoftenRadius int
	Mode         ReplaceMode
}

// DefaultConfig 默认参数：alpha 模式
func DefaultConfig() Config {
	return Config{
		Sensitivity:  DefaultSensitivity,
		MaxDimension: DefaultMaxDimension,
		SampleStride: DefaultSampleStride,
		SoftenRadius: DefaultSoftenRadius,
		Mode:         AlphaMode(),
	}
}

// Normalized 把越界参数夹到合法范围，而不是报错
func (c Config) Normalized() Config {
	switch {
	case math.IsNaN(c.Sensitivity) || c.Sensitivity < 0:
		c.Sensitivity = 0
	case c.Sensitivity > SensitivityLimit:
		c.Sensitivity = SensitivityLimit
	}
	if c.MaxDimension < 0 {
		c.MaxDimension = 0
	}
	if c.SampleStride < 1 {
		c.SampleStride = 1
	}
	c.SoftenRadius = max(0, min(c.SoftenRadius, MaxSoftenRadius))
	switch c.Mode.Kind {
	case ReplaceAlpha:
		c.Mode.Fill = Color{}
	case ReplaceHardColor:
		c.Mode.Fill = c.Mode.Fill.Opaque()
	default:
		c.Mode = AlphaMode()
	}
	return c
}

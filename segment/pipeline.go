package segment

import (
	"context"
	"image"
)

// Stats 一次分割的统计信息
type Stats struct {
	// ForegroundRatio 前景占比 (0..1)
	ForegroundRatio float64
	// Bounds 前景包围盒，HasForeground 为 false 时为空
	Bounds        image.Rectangle
	HasForeground bool
	// BorderSpread 边缘采样像素到参考色的平均距离
	BorderSpread float64
}

// Result 一次分割合成的完整输出
type Result struct {
	Image *RasterImage
	// Mask 实际用于合成的掩码（alpha 模式下是柔化后的）
	Mask *Mask
	// Reference 估计出的背景色
	Reference Color
	// Scale 工作分辨率相对输入的缩放比例，不缩放时为 1
	Scale  float64
	Config Config
	Stats  Stats
	// BackdropErr 背景图加载失败（已回退），需要调用方记录
	BackdropErr error
}

// SegmentAndComposite 同步、无状态的入口：采样 -> 分类 -> (柔化) -> 合成
//
// 输入超过 cfg.MaxDimension 时先缩放，输出为缩放后的工作分辨率。
// 相同输入与参数得到逐字节相同的输出。
func SegmentAndComposite(img *RasterImage, cfg Config, bg Background) (*Result, error) {
	return run(context.Background(), img, cfg, bg)
}

func run(ctx context.Context, img *RasterImage, cfg Config, bg Background) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Normalized()

	work, scale, err := resizeWithinMax(img, cfg.MaxDimension)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := SampleBorder(work, cfg.SampleStride)
	mask := Classify(work, ref, cfg.Sensitivity)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Mode.Kind == ReplaceAlpha && cfg.SoftenRadius > 0 {
		mask = Soften(mask, cfg.SoftenRadius)
	}

	comp, err := Composite(work, mask, bg, cfg.Mode)
	if err != nil {
		return nil, err
	}

	bounds, ok := mask.ForegroundBounds(127)
	return &Result{
		Image:     comp.Image,
		Mask:      mask,
		Reference: ref,
		Scale:     scale,
		Config:    cfg,
		Stats: Stats{
			ForegroundRatio: mask.Coverage(),
			Bounds:          bounds,
			HasForeground:   ok,
			BorderSpread:    BorderSpread(work, ref, cfg.SampleStride),
		},
		BackdropErr: comp.BackdropErr,
	}, nil
}

package segment

import (
	"context"
	"image"
)

// BackgroundRemover 抠图接口
type BackgroundRemover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Engine 用固定参数和背景包装分割流水线
type Engine struct {
	Config     Config
	Background Background
}

var _ BackgroundRemover = (*Engine)(nil)

// NewEngine 透明背景的引擎
func NewEngine(cfg Config) *Engine {
	return &Engine{
		Config:     cfg,
		Background: Transparent{},
	}
}

// Run 执行流水线，阶段之间检查 ctx
func (e *Engine) Run(ctx context.Context, img *RasterImage) (*Result, error) {
	return run(ctx, img, e.Config, e.Background)
}

// Remove 实现 BackgroundRemover，返回 *image.NRGBA
func (e *Engine) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	raster, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx, raster)
	if err != nil {
		return nil, err
	}
	return res.Image.NRGBA(), nil
}

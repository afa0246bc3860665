package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaos-io/cutout/codec"
	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/params"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
)

// Options remove 和 batch 共用的分割参数
type Options struct {
	Sensitivity  float64
	MaxDimension int
	SoftenRadius int
	SampleStride int

	Mode string
	Fill string

	Background string
	Color      string
	Stops      string
	Angle      float64
	Center     string
	// Backdrop 背景图路径或 http(s) 地址
	Backdrop string

	Format  string
	Quality int

	Crop        bool
	CropPadding int
	Square      bool
}

// job 由 Options 解析出的一次处理配置
type job struct {
	engine  *segment.Engine
	format  codec.Format
	quality int

	crop        bool
	cropPadding int
	square      bool
}

func addSegmentFlags(cmd *cobra.Command, o *Options) {
	f := cmd.Flags()
	f.Float64Var(&o.Sensitivity, "sensitivity", -1, "color distance threshold 0..442 (default from config)")
	f.IntVar(&o.MaxDimension, "max-dimension", -1, "downscale so the longest side fits, 0 disables (default from config)")
	f.IntVar(&o.SoftenRadius, "soften-radius", -1, "box blur radius for alpha mode, 0 disables (default from config)")
	f.IntVar(&o.SampleStride, "sample-stride", -1, "border sampling stride (default from config)")

	f.StringVar(&o.Mode, "mode", params.ModeAlpha, "alpha or hard")
	f.StringVar(&o.Fill, "fill", "#ffffff", "fill color for hard mode")

	f.StringVar(&o.Background, "background", params.BackgroundTransparent, "transparent, solid, linear, radial or image")
	f.StringVar(&o.Color, "color", "#ffffff", "solid background color")
	f.StringVar(&o.Stops, "stops", "", `gradient stops, e.g. "#ff0000@0,#0000ff@1"`)
	f.Float64Var(&o.Angle, "angle", 0, "linear gradient angle in degrees (0 = left to right)")
	f.StringVar(&o.Center, "center", "0.5,0.5", "radial gradient center (normalized x,y)")
	f.StringVar(&o.Backdrop, "backdrop", "", "backdrop image path or URL for --background image")

	f.StringVar(&o.Format, "format", "", "png or jpeg (default from config)")
	f.IntVar(&o.Quality, "quality", 0, "jpeg quality (default from config)")

	f.BoolVar(&o.Crop, "crop", false, "crop the result to the foreground bounds")
	f.IntVar(&o.CropPadding, "crop-padding", 0, "padding around the cropped foreground")
	f.BoolVar(&o.Square, "square", false, "make the crop square")
}

// build 以配置文件为默认值，命令行参数覆盖
func (o *Options) build(ctx context.Context, cfg *config.Config) (*job, error) {
	ec := cfg.Segment.Engine()
	if o.Sensitivity >= 0 {
		ec.Sensitivity = o.Sensitivity
	}
	if o.MaxDimension >= 0 {
		ec.MaxDimension = o.MaxDimension
	}
	if o.SoftenRadius >= 0 {
		ec.SoftenRadius = o.SoftenRadius
	}
	if o.SampleStride >= 0 {
		ec.SampleStride = o.SampleStride
	}

	mode, err := params.ParseMode(o.Mode, o.Fill)
	if err != nil {
		return nil, err
	}
	ec.Mode = mode

	bgOpts := params.BackgroundOptions{
		Kind:   o.Background,
		Color:  o.Color,
		Stops:  o.Stops,
		Angle:  o.Angle,
		Center: o.Center,
	}
	if o.Backdrop != "" {
		bgOpts.Source, err = backdropSource(ctx, o.Backdrop, cfg.Upload.MaxSize)
		if err != nil {
			return nil, err
		}
	}
	bg, err := params.ParseBackground(bgOpts)
	if err != nil {
		return nil, err
	}

	formatName := o.Format
	if formatName == "" {
		formatName = cfg.Output.Format
	}
	format, err := codec.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	quality := o.Quality
	if quality <= 0 {
		quality = cfg.Output.JPEGQuality
	}
	if o.CropPadding < 0 {
		return nil, fmt.Errorf("crop padding must be >= 0, got %d", o.CropPadding)
	}

	return &job{
		engine:      &segment.Engine{Config: ec.Normalized(), Background: bg},
		format:      format,
		quality:     quality,
		crop:        o.Crop,
		cropPadding: o.CropPadding,
		square:      o.Square,
	}, nil
}

// backdropSource 远程背景图先下载一次，批处理时所有图片共用
func backdropSource(ctx context.Context, ref string, limit int64) (segment.ImageSource, error) {
	if isURL(ref) {
		data, err := util.DownloadBytes(ctx, ref, limit)
		if err != nil {
			return nil, fmt.Errorf("download backdrop: %w", err)
		}
		return segment.EncodedSource{Data: data}, nil
	}
	return segment.FileSource{Path: ref}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

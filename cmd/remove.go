package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaos-io/cutout/codec"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	removeOpts   Options
	removeInput  string
	removeOutput string
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the background of a single image",
	Example: `  cutout remove -i photo.jpg -o photo.png
  cutout remove -i photo.jpg -o card.jpg --mode hard --fill "#ffffff" --format jpeg
  cutout remove -i photo.jpg -o out.png --background linear --stops "#ff7e5f@0,#feb47b@1" --angle 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeInput == "" {
			return fmt.Errorf("--input is required")
		}
		j, err := removeOpts.build(cmd.Context(), appConfig)
		if err != nil {
			return err
		}

		output := removeOutput
		if output == "" {
			output = defaultOutputPath(removeInput, j.format)
		}

		res, err := processFile(cmd.Context(), j, removeInput, output)
		if err != nil {
			return err
		}
		util.Logger.Info("background removed",
			zap.String("input", removeInput),
			zap.String("output", output),
			zap.Int("width", res.Image.Width),
			zap.Int("height", res.Image.Height),
			zap.Float64("scale", res.Scale),
			zap.Float64("foreground_ratio", res.Stats.ForegroundRatio),
			zap.String("reference", res.Reference.String()),
			zap.Float64("border_spread", res.Stats.BorderSpread))
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVarP(&removeInput, "input", "i", "", "input image path or URL")
	removeCmd.Flags().StringVarP(&removeOutput, "output", "o", "", "output path (default: <input>_cutout.<format>)")
	addSegmentFlags(removeCmd, &removeOpts)
	rootCmd.AddCommand(removeCmd)
}

// processFile 读取、分割合成并写出一张图片
func processFile(ctx context.Context, j *job, input, output string) (*segment.Result, error) {
	defer util.Trace("process " + filepath.Base(input))()

	img, err := loadInput(ctx, input)
	if err != nil {
		return nil, err
	}

	res, err := j.engine.Run(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", input, err)
	}
	if res.BackdropErr != nil {
		util.Logger.Warn("backdrop unavailable, fell back to transparent",
			zap.String("input", input),
			zap.Error(res.BackdropErr))
	}

	out := res.Image
	if j.crop {
		out, err = segment.CropToForeground(res.Image, res.Mask, j.cropPadding, j.square)
		if err != nil {
			return nil, fmt.Errorf("crop %s: %w", input, err)
		}
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	if err := codec.Encode(f, out, j.format, j.quality); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return res, nil
}

func loadInput(ctx context.Context, input string) (*segment.RasterImage, error) {
	if isURL(input) {
		img, err := util.DownloadImage(ctx, input)
		if err != nil {
			return nil, err
		}
		return segment.FromImage(img)
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", input, err)
	}
	return img, nil
}

func defaultOutputPath(input string, format codec.Format) string {
	if isURL(input) {
		input = filepath.Base(strings.SplitN(input, "?", 2)[0])
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_cutout" + format.Ext()
}

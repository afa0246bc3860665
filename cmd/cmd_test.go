package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/chaos-io/cutout/codec"
	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSubject 写出 10x10 白底、中间 4x4 红块的 png
func writeSubject(t *testing.T, path string) {
	t.Helper()
	pix := make([]uint8, 10*10*4)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			p := (y*10 + x) * 4
			pix[p], pix[p+1], pix[p+2], pix[p+3] = 255, 255, 255, 255
			if x >= 3 && x < 7 && y >= 3 && y < 7 {
				pix[p+1], pix[p+2] = 0, 0
			}
		}
	}
	img, err := segment.NewRasterImageFromPix(10, 10, pix)
	require.NoError(t, err)
	data, err := codec.EncodeBytes(img, codec.PNG, 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func defaultOptions() Options {
	return Options{
		Sensitivity:  -1,
		MaxDimension: -1,
		SoftenRadius: 0,
		SampleStride: -1,
		Mode:         "alpha",
		Fill:         "#ffffff",
		Background:   "transparent",
		Color:        "#ffffff",
		Center:       "0.5,0.5",
	}
}

func readOutput(t *testing.T, path string) *segment.RasterImage {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := codec.Decode(f)
	require.NoError(t, err)
	return img
}

func TestOptionsBuild(t *testing.T) {
	cfg := config.Default()

	o := defaultOptions()
	j, err := o.build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Segment.Sensitivity, j.engine.Config.Sensitivity)
	assert.Equal(t, 0, j.engine.Config.SoftenRadius)
	assert.Equal(t, codec.PNG, j.format)
	assert.Equal(t, cfg.Output.JPEGQuality, j.quality)

	o.Sensitivity = 1000
	o.Mode = "hard"
	o.Fill = "#000000"
	o.Format = "jpg"
	j, err = o.build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, float64(segment.SensitivityLimit), j.engine.Config.Sensitivity)
	assert.Equal(t, segment.ReplaceHardColor, j.engine.Config.Mode.Kind)
	assert.Equal(t, codec.JPEG, j.format)

	bad := defaultOptions()
	bad.Background = "image"
	_, err = bad.build(context.Background(), cfg)
	assert.Error(t, err)

	bad = defaultOptions()
	bad.Format = "tga"
	_, err = bad.build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "subject.png")
	writeSubject(t, in)

	o := defaultOptions()
	j, err := o.build(context.Background(), config.Default())
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "subject.png")
	res, err := processFile(context.Background(), j, in, out)
	require.NoError(t, err)
	assert.InDelta(t, 0.16, res.Stats.ForegroundRatio, 1e-9)

	img := readOutput(t, out)
	assert.Equal(t, 10, img.Width)
	assert.Equal(t, uint8(0), img.At(0, 0).A)
	assert.Equal(t, segment.Color{R: 255, A: 255}, img.At(5, 5))

	// 裁剪到前景
	j.crop = true
	cropped := filepath.Join(dir, "cropped.png")
	_, err = processFile(context.Background(), j, in, cropped)
	require.NoError(t, err)
	img = readOutput(t, cropped)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 4, img.Height)

	_, err = processFile(context.Background(), j, filepath.Join(dir, "missing.png"), cropped)
	assert.Error(t, err)
}

func TestProcessFile_SolidBackdropFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "subject.png")
	writeSubject(t, in)

	bd := filepath.Join(dir, "backdrop.png")
	pix := make([]uint8, 2*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i+2], pix[i+3] = 255, 255
	}
	bdImg, err := segment.NewRasterImageFromPix(2, 2, pix)
	require.NoError(t, err)
	data, err := codec.EncodeBytes(bdImg, codec.PNG, 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(bd, data, 0644))

	o := defaultOptions()
	o.Background = "image"
	o.Backdrop = bd
	j, err := o.build(context.Background(), config.Default())
	require.NoError(t, err)

	out := filepath.Join(dir, "out.png")
	_, err = processFile(context.Background(), j, in, out)
	require.NoError(t, err)
	assert.Equal(t, segment.Color{B: 255, A: 255}, readOutput(t, out).At(0, 0))
}

func TestRunBatch(t *testing.T) {
	tasks := make([]batchTask, 10)
	for i := range tasks {
		tasks[i] = batchTask{input: string(rune('a' + i))}
	}

	var calls int32
	failed := runBatch(context.Background(), tasks, 3, func(_ context.Context, task batchTask) error {
		atomic.AddInt32(&calls, 1)
		if task.input == "c" || task.input == "f" {
			return errors.New("boom")
		}
		return nil
	})
	assert.Equal(t, 2, failed)
	assert.Equal(t, int32(10), atomic.LoadInt32(&calls))
}

func TestRunBatch_Canceled(t *testing.T) {
	tasks := make([]batchTask, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	runBatch(ctx, tasks, 2, func(context.Context, batchTask) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.Less(t, atomic.LoadInt32(&calls), int32(50))
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0755))

	files, err := listImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.webp"),
	}, files)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "dir/photo_cutout.png", defaultOutputPath("dir/photo.jpg", codec.PNG))
	assert.Equal(t, "photo_cutout.jpg", defaultOutputPath("https://example.com/x/photo.png?size=2", codec.JPEG))
}

func TestRemoveCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "subject.png")
	out := filepath.Join(dir, "result.png")
	writeSubject(t, in)

	rootCmd.SetArgs([]string{"remove", "-i", in, "-o", out, "--soften-radius", "0", "--log-mode", "release",
		"--background", "solid", "--color", "#00ff00"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	img := readOutput(t, out)
	assert.Equal(t, segment.Color{G: 255, A: 255}, img.At(0, 0))
	assert.Equal(t, segment.Color{R: 255, A: 255}, img.At(4, 4))
}

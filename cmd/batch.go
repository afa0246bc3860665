package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/chaos-io/cutout/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchOpts    Options
	batchInput   string
	batchOutput  string
	batchWorkers int
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

type batchTask struct {
	input  string
	output string
}

type batchResult struct {
	task batchTask
	err  error
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Remove the background of every image in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchInput == "" || batchOutput == "" {
			return fmt.Errorf("--input and --output are required")
		}
		j, err := batchOpts.build(cmd.Context(), appConfig)
		if err != nil {
			return err
		}

		files, err := listImages(batchInput)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			util.Logger.Warn("no images found", zap.String("dir", batchInput))
			return nil
		}

		tasks := make([]batchTask, 0, len(files))
		for _, f := range files {
			name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)) + j.format.Ext()
			tasks = append(tasks, batchTask{input: f, output: filepath.Join(batchOutput, name)})
		}

		failed := runBatch(cmd.Context(), tasks, batchWorkers, func(ctx context.Context, t batchTask) error {
			_, err := processFile(ctx, j, t.input, t.output)
			return err
		})
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(tasks))
		}
		util.Logger.Info("batch finished", zap.Int("images", len(tasks)), zap.String("output", batchOutput))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "input directory")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output directory")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", runtime.NumCPU(), "number of concurrent workers")
	addSegmentFlags(batchCmd, &batchOpts)
	rootCmd.AddCommand(batchCmd)
}

// runBatch 用固定数量的 worker 处理任务，返回失败数量
//
// ctx 取消后不再分发新任务，已开始的任务会在阶段之间退出。
func runBatch(ctx context.Context, tasks []batchTask, workers int, process func(context.Context, batchTask) error) int {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskChan := make(chan batchTask, workers)
	resultsChan := make(chan batchResult, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskChan {
				resultsChan <- batchResult{task: t, err: process(ctx, t)}
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for _, t := range tasks {
			select {
			case taskChan <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	bar := progressbar.NewOptions(len(tasks),
		progressbar.OptionSetDescription("Removing backgrounds"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	failed := 0
	for r := range resultsChan {
		if r.err != nil {
			failed++
			util.Logger.Error("image failed", zap.String("input", r.task.input), zap.Error(r.err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return failed
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

package server

import (
	"os"
	"path/filepath"
	"time"

	"github.com/chaos-io/cutout/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupExpired 删除目录下修改时间早于 now-retention 的普通文件，返回删除数量
func CleanupExpired(dir string, retention time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	deadline := now.Add(-retention)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(deadline) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			util.Logger.Warn("failed to delete expired file", zap.String("file", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// StartCleanup 按 cron 表达式定期清理目录，返回的 cron 需要在退出时 Stop
func StartCleanup(spec string, retention time.Duration, dirs ...string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		for _, dir := range dirs {
			n, err := CleanupExpired(dir, retention, time.Now())
			if err != nil {
				util.Logger.Warn("cleanup failed", zap.String("dir", dir), zap.Error(err))
				continue
			}
			if n > 0 {
				util.Logger.Info("expired files removed", zap.String("dir", dir), zap.Int("count", n))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

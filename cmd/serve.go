package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/chaos-io/cutout/cache"
	"github.com/chaos-io/cutout/server"
	"github.com/chaos-io/cutout/util"
	uhttp "github.com/chaos-io/cutout/util/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	cfg := appConfig

	util.Logger.Info("starting cutout server",
		zap.String("version", buildInfo.Version),
		zap.String("build_time", buildInfo.BuildTime),
		zap.String("git_commit", buildInfo.GitCommit),
		zap.String("git_branch", buildInfo.GitBranch))

	for _, dir := range []string{cfg.Upload.UploadDir, cfg.Output.Dir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	rc := cache.New(ctx, &cfg.Redis)
	defer rc.Close()

	cleaner, err := server.StartCleanup(cfg.Output.CleanupSpec, cfg.Output.Retention, cfg.Upload.UploadDir, cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer cleaner.Stop()

	gin.SetMode(cfg.Server.Mode)
	h := server.NewSegmentHandler(cfg, rc, uhttp.NewHTTPClient(uhttp.WithPublicOnly()))
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      server.NewRouter(h, buildInfo),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		util.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	util.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

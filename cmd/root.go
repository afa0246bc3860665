package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/server"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
)

var (
	// cfgPath 配置文件路径，为空时使用默认值和环境变量
	cfgPath string
	logMode string

	appConfig *config.Config
	buildInfo = server.BuildInfo{Version: "dev"}
)

var rootCmd = &cobra.Command{
	Use:          "cutout",
	Short:        "Border-seeded background removal and compositing",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			if cfgPath != "" {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = config.Default()
		}
		appConfig = cfg

		mode := logMode
		if mode == "" {
			mode = cfg.Server.Mode
		}
		return util.InitLogger(mode)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		util.Sync()
	},
}

// Execute 入口，Ctrl+C 或 SIGTERM 会取消命令的 context
func Execute(info server.BuildInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildInfo = info
	rootCmd.Version = info.Version
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "debug or release (default: server.mode)")
}

package main

import (
	"os"

	"github.com/chxdon9587/NextForD/internal/config"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nextford",
	Short: "Milestone crowdfunding service",
	Long: `NextForD backend: projects, milestone escrow, backings and community features.

Available subcommands:
  serve   - Run the HTTP API and background jobs
  migrate - Create or update the database schema`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig 读取配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	}); err != nil {
		return nil, err
	}
	if cfg.InsecureJWTSecret() {
		logger.Warn("auth.jwt_secret is not set, tokens are signed with the development default")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

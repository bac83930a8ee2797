package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/app"
	"alfredoptarigan/rag-candidates/internal/config"
	"alfredoptarigan/rag-candidates/internal/logger"
)

const appName = "ragctl"

var (
	v = viper.New()

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "ragctl builds the candidate index and asks questions about it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "a YAML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("input", "", "directory with candidate records")

	mustBind("config_file", "config")
	mustBind("log.debug", "debug")
	mustBind("log.json", "json")
	mustBind("data.input", "input")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Fatalf("binding flag %s: %v", flag, err)
	}
}

// setup resolves configuration and wires the application for one command run.
func setup(ctx context.Context) (*app.App, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Error("initializing", zap.Error(err))
		return nil, err
	}
	return a, nil
}

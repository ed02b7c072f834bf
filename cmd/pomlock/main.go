// Package main is the CLI entry point for pomlock.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/pomlock/internal/config"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

var (
	v = viper.New()

	cfgFile string
	logFile string
	verbose bool

	// readErr is a config file that exists but could not be parsed
	readErr error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pomlock",
	Short: "Pomodoro timer that locks keyboard and mouse during breaks",
	Long: `pomlock runs work/break cycles in the foreground. During every break
it detaches keyboard and pointer devices through xinput and shows a
full-screen overlay, then re-attaches them when the break ends.

If pomlock is killed mid-break, a guardian process restores input.
Run 'pomlock unlock' if you are ever left without a keyboard.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init(v, cfgFile)
		readErr = config.Read(v)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/pomlock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write operational logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig returns the effective configuration. An unreadable config file
// falls back to defaults with a warning; a file that fails validation is an error.
func loadConfig(logger *zap.Logger) (*config.Config, error) {
	if readErr != nil {
		logger.Warn("failed to read config file, using defaults",
			zap.String("path", v.ConfigFileUsed()),
			zap.Error(readErr))
	}
	return config.Load(v)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// createLogger builds the foreground console logger.
func createLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	level := zapcore.InfoLevel
	if lvl, err := zapcore.ParseLevel(v.GetString("logging.level")); err == nil {
		level = lvl
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// createDaemonLogger builds the guardian's JSON file logger.
func createDaemonLogger(paths *infra.Paths) *zap.Logger {
	path := logFile
	if path == "" {
		path = paths.GuardianLogFile()
	}
	_ = infra.NewFileSystem().EnsureDir(path)

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

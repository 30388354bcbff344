// Package cmd provides the vitalpress command line.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-vitalpress/internal/config"
	"github.com/goliatone/go-vitalpress/internal/logging"
)

var (
	configPath    string
	debug         bool
	logLevel      string
	logFile       string
	logComponents string

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vitalpress",
		Short: "VitalPress serves the wellness publication and its editor",
		Long: `VitalPress renders categorized articles, the video gallery and the
health calculators from an external content service, and hosts the
admin post editor.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return logging.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Configuration file (default ./vitalpress.yaml when present)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVarP(&logFile, "logfile", "l", "", "Also write logs to this file, rotated")
	flags.StringVar(&logComponents, "log-components", "", "Comma separated components to log (e.g. 'web,api'). Empty logs all")

	root.AddCommand(newServeCmd(), newFormCmd(), newPostsCmd(), newCalcCmd())
	return root
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	// Flags win over the file.
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	} else if debug {
		level = "debug"
	}
	path := cfg.Log.File
	if logFile != "" {
		path = logFile
	}
	components := cfg.Log.Components
	if logComponents != "" {
		components = splitList(logComponents)
	}
	if err := logging.Initialize(logging.Config{
		Level:     level,
		FileLevel: cfg.Log.FileLevel,
		File: logging.FileConfig{
			Path:       path,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		},
		JSON:       cfg.Log.JSON,
		Components: components,
		Output:     cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

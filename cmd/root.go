package cmd

import (
	"fmt"
	"os"

	"gfmclip/pkg/completions"
	"gfmclip/pkg/config"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var outputFormat string
var logLevel string
var profileName string
var configFile string

var rootCmd = &cobra.Command{
	Use:   "gfmclip",
	Short: "Copy rendered markdown as GitLab Flavored Markdown",
	Long: `Converts a selection of rendered HTML back into GitLab Flavored Markdown and
puts it on the clipboard next to the plain text and HTML renderings. Pasting
picks the markdown or the plain text depending on whether the caret sits in a
code span. Configuration lives in the XDG config directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set log level: explicit flag takes precedence over env var
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("GFMCLIP_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			}
		}
		logger.SetLevel(level)

		if _, err := NewOutputFormat(outputFormat); err != nil {
			return err
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "gfmclip version %s\n", ver)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", bt)
		fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", gc)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

// loadConfig loads the configuration for cmd, honoring --config and
// --profile. The config log level applies unless --log-level was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile, profileName)
	} else {
		cfg, err = config.Load(profileName)
	}
	if err != nil {
		return nil, err
	}

	if !cmd.Flags().Changed("log-level") {
		logger.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", string(FormatGFM), "Output format (gfm, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Configuration profile to use")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (default $XDG_CONFIG_HOME/gfmclip/config.yaml)")

	completions.RegisterCompletions(rootCmd)
}

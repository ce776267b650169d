package cmd

import (
	"fmt"
	"os"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/filter"

	"github.com/spf13/cobra"
)

var (
	configProfileName  string
	configStructured   string
	configCode         string
	configPasteTarget  string
	configMarkupFormat string
	configSanitize     bool
	configDefault      bool
	configForce        bool
	configGrep         string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gfmclip configuration and profiles",
	Long:  `Manage gfmclip configuration, including per-site profiles for pages whose markup conventions differ from the defaults.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, with the active profile and environment overrides applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := NewOutputWriter(outputFormat)
		out.SetWriter(cmd.OutOrStdout())
		if out.IsStructured() {
			return out.Write(cfg)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Current Configuration:")
		fmt.Fprintln(w, "======================")
		fmt.Fprintf(w, "Active Profile: %s\n", func() string {
			if cfg.ActiveProfile == "" {
				return "(none)"
			}
			return cfg.ActiveProfile
		}())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Structured content: %s\n", cfg.Selectors.StructuredContent)
		fmt.Fprintf(w, "Code display:       %s\n", cfg.Selectors.CodeDisplay)
		fmt.Fprintf(w, "Paste target:       %s\n", cfg.Selectors.PasteTarget)
		fmt.Fprintf(w, "Line / content:     %s / %s\n", cfg.Selectors.Line, cfg.Selectors.LineContent)
		fmt.Fprintf(w, "Diff sides:         %v\n", cfg.Selectors.DiffSides)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Formats: plain=%s markup=%s html=%s\n", cfg.Formats.Plain, cfg.Formats.Markup, cfg.Formats.HTML)
		fmt.Fprintf(w, "Sanitize HTML: %t\n", cfg.SanitizeHTML)
		fmt.Fprintf(w, "Serve address: %s\n", cfg.Serve.Addr)
		fmt.Fprintf(w, "Log level: %s\n", cfg.LogLevel)

		if len(cfg.Profiles) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Available Profiles:")
			for _, p := range cfg.Profiles {
				active := ""
				if cfg.IsProfileActive(p.Name) {
					active = " (active)"
				}
				fmt.Fprintf(w, "  - %s%s\n", p.Name, active)
			}
		}

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := editPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return errors.NewWithSuggestion(errors.ExitCodeConfig,
				fmt.Sprintf("config file already exists: %s", path),
				"Use --force to overwrite it")
		}
		if err := config.SaveFile(path, config.Default()); err != nil {
			return err
		}
		notify("Wrote %s", path)
		return nil
	},
}

var configProfilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage configuration profiles",
	Long:    `List, add, remove, and switch between per-site configuration profiles.`,
}

var configProfilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadForEdit()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		profiles := cfg.ListProfiles()
		if configGrep != "" {
			f, err := filter.NewStringFilter(configGrep, filter.FilterModeFuzzy)
			if err != nil {
				return err
			}
			profiles = f.Apply(profiles)
		}
		if len(profiles) == 0 {
			fmt.Fprintln(w, "No profiles configured.")
			fmt.Fprintln(w, "Use 'gfmclip config profiles add --name <name>' to create one.")
			return nil
		}

		fmt.Fprintln(w, "Profiles:")
		for _, name := range profiles {
			profile, _ := cfg.GetProfile(name)
			marks := ""
			if cfg.IsProfileActive(name) {
				marks += " *active*"
			}
			if profile.Default {
				marks += " (default)"
			}
			fmt.Fprintf(w, "  %s%s\n", name, marks)
			if profile.Selectors.StructuredContent != "" {
				fmt.Fprintf(w, "    Structured content: %s\n", profile.Selectors.StructuredContent)
			}
			if profile.Selectors.CodeDisplay != "" {
				fmt.Fprintf(w, "    Code display: %s\n", profile.Selectors.CodeDisplay)
			}
		}

		return nil
	},
}

var configProfilesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new profile",
	Long:  `Add a per-site profile. Unset selectors fall back to the top-level configuration.`,
	Example: `  # A site that renders markdown into .markdown-body
  gfmclip config profiles add --name github --structured '.markdown-body'

  # Use a different markup format key and make the profile the default
  gfmclip config profiles add --name plain --markup-format text/markdown --default`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ConfigError("profile name is required (--name)")
		}

		cfg, err := loadForEdit()
		if err != nil {
			return err
		}

		profile := config.Profile{
			Name: configProfileName,
			Selectors: config.Selectors{
				StructuredContent: configStructured,
				CodeDisplay:       configCode,
				PasteTarget:       configPasteTarget,
			},
			Default: configDefault,
		}
		if configMarkupFormat != "" {
			profile.Formats = clipboard.Formats{Markup: configMarkupFormat}
		}
		if cmd.Flags().Changed("sanitize") {
			sanitize := configSanitize
			profile.SanitizeHTML = &sanitize
		}

		if err := cfg.AddProfile(profile); err != nil {
			return err
		}
		if err := saveEdited(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' added successfully.\n", configProfileName)
		fmt.Fprintf(cmd.OutOrStdout(), "Use 'gfmclip config profiles use --name %s' to activate it.\n", configProfileName)

		return nil
	},
}

var configProfilesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ConfigError("profile name is required (--name)")
		}

		cfg, err := loadForEdit()
		if err != nil {
			return err
		}

		if err := cfg.RemoveProfile(configProfileName); err != nil {
			return err
		}
		if err := saveEdited(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed successfully.\n", configProfileName)
		return nil
	},
}

var configProfilesUseCmd = &cobra.Command{
	Use:   "use",
	Short: "Switch to a profile",
	Long:  `Set the active profile for subsequent commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ConfigError("profile name is required (--name)")
		}

		cfg, err := loadForEdit()
		if err != nil {
			return err
		}

		if err := cfg.SetProfile(configProfileName); err != nil {
			return err
		}
		if err := saveEdited(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'.\n", configProfileName)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := editPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// editPath is the file config commands read and write.
func editPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return "", errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return path, nil
}

func loadForEdit() (*config.Config, error) {
	path, err := editPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFileForEdit(path)
}

func saveEdited(cfg *config.Config) error {
	path, err := editPath()
	if err != nil {
		return err
	}
	return config.SaveFile(path, cfg)
}

func init() {
	// Profile management flags
	configProfilesAddCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	configProfilesAddCmd.Flags().StringVar(&configStructured, "structured", "", "Selector of rendered markdown regions")
	configProfilesAddCmd.Flags().StringVar(&configCode, "code", "", "Selector of code displays")
	configProfilesAddCmd.Flags().StringVar(&configPasteTarget, "paste-target", "", "Selector of markdown inputs")
	configProfilesAddCmd.Flags().StringVar(&configMarkupFormat, "markup-format", "", "Clipboard format key for the markdown")
	configProfilesAddCmd.Flags().BoolVar(&configSanitize, "sanitize", false, "Sanitize the HTML representation")
	configProfilesAddCmd.Flags().BoolVar(&configDefault, "default", false, "Apply the profile when none is active")
	if err := configProfilesAddCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesRemoveCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesRemoveCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesUseCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesUseCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesListCmd.Flags().StringVarP(&configGrep, "grep", "g", "", "Only list profiles fuzzily matching this name")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	// Add commands
	configProfilesCmd.AddCommand(configProfilesListCmd)
	configProfilesCmd.AddCommand(configProfilesAddCmd)
	configProfilesCmd.AddCommand(configProfilesRemoveCmd)
	configProfilesCmd.AddCommand(configProfilesUseCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configProfilesCmd)
	configCmd.AddCommand(configPathCmd)
}

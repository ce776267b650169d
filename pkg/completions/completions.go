package completions

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gfmclip/pkg/config"
)

type Completer struct {
	load func() (*config.Config, error)
}

func NewCompleter() *Completer {
	return &Completer{load: func() (*config.Config, error) { return config.Load() }}
}

// CompleteProfileNames completes profile names from the config file. A
// config that fails to load completes nothing.
func (c *Completer) CompleteProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.load()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	names := make([]string, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		desc := "profile"
		if p.Default {
			desc = "default profile"
		}
		if cfg.IsProfileActive(p.Name) {
			desc = "active profile"
		}
		names = append(names, fmt.Sprintf("%s\t%s", p.Name, desc))
	}

	return c.filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"gfm", "json", "yaml"}, getFormatDescription, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"auto", "structured", "code"}, getModeDescription, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	levels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
	return c.filterPrefix(levels, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) describe(items []string, desc func(string) string, prefix string) []string {
	results := c.filterPrefix(items, prefix)
	for i, item := range results {
		results[i] = fmt.Sprintf("%s\t%s", item, desc(item))
	}
	return results
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getFormatDescription(format string) string {
	switch format {
	case "gfm":
		return "GitHub Flavored Markdown only"
	case "json":
		return "All clipboard representations as JSON"
	case "yaml":
		return "All clipboard representations as YAML"
	default:
		return ""
	}
}

func getModeDescription(mode string) string {
	switch mode {
	case "auto":
		return "Decide from the element the selection is in"
	case "structured":
		return "Rendered markdown content"
	case "code":
		return "Highlighted code or diff lines"
	default:
		return ""
	}
}

// RegisterCompletions wires flag completion on the root command and on
// every subcommand that defines the flag.
func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("profile", completer.CompleteProfileNames)
	rootCmd.RegisterFlagCompletionFunc("log-level", completer.CompleteLogLevel)
	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)

	copyCmd, _, _ := rootCmd.Find([]string{"copy"})
	if copyCmd != nil && copyCmd != rootCmd {
		copyCmd.RegisterFlagCompletionFunc("mode", completer.CompleteMode)
	}

	for _, path := range [][]string{{"config", "profiles", "use"}, {"config", "profiles", "remove"}} {
		cmd, args, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd || len(args) != 0 {
			continue
		}
		cmd.RegisterFlagCompletionFunc("name", completer.CompleteProfileNames)
	}
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"gfmclip/pkg/errors"
	"gfmclip/pkg/filter"
	"gfmclip/pkg/history"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyGrep  string
	historyMatch string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded copies",
	Long: `Copies that produced GFM are recorded in a local sqlite database
($XDG_DATA_HOME/gfmclip/history.db, or GFMCLIP_HISTORY_DB). Entries expire
after GFMCLIP_HISTORY_TTL (default 168h) and at most GFMCLIP_HISTORY_LIMIT
(default 100) are kept.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		limit := historyLimit
		if historyGrep != "" {
			limit = 0
		}
		entries, err := m.List(limit)
		if err != nil {
			return errors.CommandError("list history", err)
		}
		if historyGrep != "" {
			if entries, err = grepEntries(entries, historyGrep, historyMatch, historyLimit); err != nil {
				return err
			}
		}

		out := NewOutputWriter(outputFormat)
		out.SetWriter(cmd.OutOrStdout())
		if out.IsStructured() {
			return out.Write(entries)
		}

		w := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(w, "No copies recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%4d  %s  %s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), summary(e.Markup, 60))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the markup of a recorded copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errors.ValidationError(fmt.Sprintf("invalid history id %q", args[0]))
		}
		entry, err := historyEntry(id)
		if err != nil {
			return err
		}

		out := NewOutputWriter(outputFormat)
		out.SetWriter(cmd.OutOrStdout())
		if out.IsStructured() {
			return out.Write(entry)
		}
		return out.WriteText(entry.Markup)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recorded copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Clear(); err != nil {
			return errors.CommandError("clear history", err)
		}
		notify("History cleared")
		return nil
	},
}

var historyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		info, err := m.Info()
		if err != nil {
			return errors.CommandError("read history", err)
		}
		info["path"] = history.GetDBPath()

		out := NewOutputWriter(outputFormat)
		out.SetWriter(cmd.OutOrStdout())
		if out.IsStructured() {
			return out.Write(info)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Path:   %s\n", info["path"])
		fmt.Fprintf(w, "Copies: %d\n", info["copies_count"])
		fmt.Fprintf(w, "Oldest: %s\n", info["oldest_copy"])
		fmt.Fprintf(w, "TTL:    %s\n", info["ttl"])
		fmt.Fprintf(w, "Limit:  %d\n", info["limit"])
		return nil
	},
}

// grepEntries keeps the entries whose markup matches pattern, at most limit
// of them when limit is positive.
func grepEntries(entries []history.Entry, pattern, mode string, limit int) ([]history.Entry, error) {
	m, err := filter.ParseMode(mode)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	f, err := filter.NewStringFilter(pattern, m)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	var out []history.Entry
	for _, e := range entries {
		if limit > 0 && len(out) == limit {
			break
		}
		if f.Match(e.Markup) {
			out = append(out, e)
		}
	}
	return out, nil
}

func openHistory() (*history.Manager, error) {
	m, err := history.NewManagerFromEnv()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ExitCodeFileOperation, "failed to open copy history")
	}
	return m, nil
}

// historyEntry returns the entry with id, or the newest one when id is 0.
func historyEntry(id int64) (*history.Entry, error) {
	m, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var entry *history.Entry
	if id == 0 {
		entry, err = m.Last()
	} else {
		entry, err = m.Get(id)
	}
	if err != nil {
		return nil, errors.CommandError("read history", err)
	}
	if entry == nil {
		return nil, errors.NewWithSuggestion(errors.ExitCodeValidation,
			"no matching copy in the history",
			"Run 'gfmclip history list' to see recorded copies")
	}
	return entry, nil
}

// summary is the first line of s, cut to width runes.
func summary(s string, width int) string {
	line, _, _ := strings.Cut(s, "\n")
	r := []rune(line)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return line
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of copies to list (0 for all)")
	historyListCmd.Flags().StringVarP(&historyGrep, "grep", "g", "", "Only list copies whose markup matches")
	historyListCmd.Flags().StringVar(&historyMatch, "match", "contains", "How --grep matches: exact, contains, regex, fuzzy")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyInfoCmd)
}

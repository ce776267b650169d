package cmd

import (
	"fmt"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/copyasgfm"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/history"
	"gfmclip/pkg/logger"
	"gfmclip/pkg/nodes"
	"gfmclip/pkg/selection"
	"gfmclip/pkg/surface"

	"github.com/spf13/cobra"
)

// CopyResult is what a copy put on the clipboard, keyed by format.
type CopyResult struct {
	EventID string            `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Handled bool              `json:"handled" yaml:"handled"`
	Formats map[string]string `json:"formats" yaml:"formats"`
}

type copyOptions struct {
	selector  string
	target    string
	mode      string
	stdout    bool
	preview   bool
	noHistory bool
}

func newCopyCmd() *cobra.Command {
	opts := &copyOptions{}
	return NewCommand("copy [FILE]", "Copy a selection of an HTML page as GFM",
		`Selects elements of an HTML page (FILE or stdin) and copies them the way a
browser copy over the page would be intercepted: rendered markdown and code
views become GFM, stored next to the plain text and the HTML.

Without a multi-format system clipboard only plain text is copied.`).
		WithExample(`  # Copy the rendered markdown of a saved issue page
  gfmclip copy issue.html --select '.md'

  # Copy the left side of a parallel diff and print every representation
  gfmclip copy mr.html --select '.diff-content' --target '.line_content.left-side' --stdout --format json`).
		WithMaxArgs(1).
		WithFlags(func(c *cobra.Command) {
			c.Flags().StringVarP(&opts.selector, "select", "s", "", "CSS selector of the selected elements (default: whole page)")
			c.Flags().StringVarP(&opts.target, "target", "t", "", "CSS selector of the element the copy starts from (default: first selected)")
			c.Flags().StringVarP(&opts.mode, "mode", "m", "auto", "Transform: auto, structured or code")
			c.Flags().BoolVar(&opts.stdout, "stdout", false, "Print the payload instead of writing the system clipboard")
			c.Flags().BoolVar(&opts.preview, "preview", false, "Render the markdown in the terminal")
			c.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the copy in the history")
		}).
		WithConfig(func(cmd *cobra.Command, cfg *config.Config, args []string) error {
			return runCopy(cmd, cfg, args, opts)
		}).
		Build()
}

func runCopy(cmd *cobra.Command, cfg *config.Config, args []string, opts *copyOptions) error {
	mode, err := copyasgfm.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	src, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	doc, err := nodes.Parse(src)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeValidation, errors.ErrMsgParseHTML, err)
	}
	selected, err := selection.Select(doc, opts.selector)
	if err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid --select: %v", err))
	}
	if len(selected) == 0 {
		return errors.NewWithSuggestion(errors.ExitCodeValidation,
			fmt.Sprintf("--select %q matches nothing", opts.selector),
			"Check the selector against the page, e.g. '.md, .wiki'")
	}
	target, err := selection.Target(doc, opts.target, selected)
	if err != nil {
		return errors.ValidationError(err.Error())
	}

	caps := clipboard.SystemCapabilities()
	if opts.stdout {
		caps = clipboard.Supported
	}
	s := surface.New()
	comp, err := copyasgfm.FromConfig(s, caps, cfg)
	if err != nil {
		return err
	}
	if err := comp.Attach(); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to bind triggers", err)
	}
	defer comp.Detach()
	if err := checkExplicitMode(comp, mode); err != nil {
		return err
	}

	var (
		carrier clipboard.Carrier
		mem     = clipboard.NewMemoryCarrier()
		sys     *clipboard.SystemCarrier
	)
	if opts.stdout {
		carrier = mem
	} else {
		sys = clipboard.NewSystemCarrier(cfg.Formats)
		carrier = sys
		mem = sys.MemoryCarrier
	}

	result := CopyResult{}
	switch {
	case mode == "":
		e := &surface.Event{
			Type:      surface.Copy,
			Target:    target,
			Selection: selection.NewRange(selected...),
			Clipboard: carrier,
		}
		if err := s.Dispatch(e); err != nil {
			return err
		}
		result.EventID = e.ID
		result.Handled = e.DefaultPrevented()
	case comp.Enabled():
		err := comp.CopyFragment(carrier, selection.NewRange(selected...).Fragment(), target, mode)
		if err != nil && !errors.IsSkip(err) {
			return err
		}
		result.Handled = err == nil
	}

	plain := selection.PlainText(selected)
	switch {
	case !result.Handled:
		// Left to the platform: plain text only.
		if sys != nil {
			if err := clipboard.WriteSystemText(plain); err != nil {
				return errors.ClipboardError(err)
			}
		}
		result.Formats = map[string]string{cfg.Formats.Plain: plain}
	case sys != nil:
		if err := sys.Commit(); err != nil {
			return errors.ClipboardError(err)
		}
		result.Formats = mem.Map()
	default:
		result.Formats = mem.Map()
	}

	if result.Handled && !opts.noHistory {
		recordCopy(history.NewEntry(result.EventID, opts.mode, clipboard.ReadPayload(mem, cfg.Formats)))
	}

	out := NewOutputWriter(outputFormat)
	out.SetWriter(cmd.OutOrStdout())
	if out.IsStructured() {
		return out.Write(result)
	}

	if opts.stdout || opts.preview {
		markup := plain
		if result.Handled {
			markup = result.Formats[cfg.Formats.Markup]
		}
		if err := out.WriteMarkup(markup, opts.preview); err != nil {
			return err
		}
	}
	if sys != nil {
		if result.Handled {
			notify("Copied GFM to clipboard (%d formats)", len(result.Formats))
		} else {
			notify("Copied plain text to clipboard")
		}
	}
	return nil
}

// checkExplicitMode rejects a forced mode the clipboard cannot carry. In auto
// mode the copy falls back to plain text instead.
func checkExplicitMode(comp *copyasgfm.Component, mode copyasgfm.Mode) error {
	if mode == "" || comp.Enabled() {
		return nil
	}
	return errors.UnsupportedError(fmt.Sprintf("--mode %s", mode))
}

// recordCopy adds e to the history. The copy itself already succeeded, so
// failures are only logged.
func recordCopy(e history.Entry) {
	m, err := history.NewManagerFromEnv()
	if err != nil {
		logger.Warn().Err(err).Msg("copy history unavailable")
		return
	}
	defer m.Close()
	if _, err := m.Save(e); err != nil {
		logger.Warn().Err(err).Msg("copy not recorded")
	}
}

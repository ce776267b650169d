package cmd

import (
	"os"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/copyasgfm"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/paste"
	"gfmclip/pkg/surface"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// PasteResult is the destination text after a paste.
type PasteResult struct {
	Handled bool   `json:"handled" yaml:"handled"`
	Choice  string `json:"choice" yaml:"choice"`
	Text    string `json:"text" yaml:"text"`
	Caret   int    `json:"caret" yaml:"caret"`
}

type pasteOptions struct {
	payload string
	last    bool
	entry   int64
	into    string
	text    string
	at      int
	write   bool
}

func newPasteCmd() *cobra.Command {
	opts := &pasteOptions{}
	return NewCommand("paste", "Paste a copied payload into text",
		`Pastes into a destination text the way an intercepted paste would: GFM is
inserted unless the caret sits inside a code span or block, where the plain
text is used instead.

The payload is the output of 'gfmclip copy --format json' (or yaml), or a
recorded copy from the history. Otherwise the system clipboard is read, which
only offers plain text, so the paste falls back to inserting it unchanged.`).
		WithExample(`  # Paste a saved payload at the end of a draft and save it
  gfmclip copy issue.html --select .md --stdout --format json > payload.json
  gfmclip paste --payload payload.json --into draft.md --write

  # Paste the last recorded copy
  gfmclip paste --last --into draft.md --write

  # Paste into a literal text at rune offset 3
  gfmclip paste --payload payload.json --text 'a `` c' --at 3`).
		WithMaxArgs(0).
		WithFlags(func(c *cobra.Command) {
			c.Flags().StringVar(&opts.payload, "payload", "", "Copy payload file (JSON or YAML), '-' for stdin")
			c.Flags().BoolVar(&opts.last, "last", false, "Use the newest copy from the history")
			c.Flags().Int64Var(&opts.entry, "history-id", 0, "Use the copy with this history id")
			c.MarkFlagsMutuallyExclusive("payload", "last", "history-id")
			c.Flags().StringVar(&opts.into, "into", "", "File holding the destination text")
			c.Flags().StringVar(&opts.text, "text", "", "Destination text, ignored with --into")
			c.Flags().IntVar(&opts.at, "at", -1, "Caret position in runes (default: end of text)")
			c.Flags().BoolVarP(&opts.write, "write", "w", false, "Write the result back to the --into file")
		}).
		WithConfig(func(cmd *cobra.Command, cfg *config.Config, args []string) error {
			return runPaste(cmd, cfg, opts)
		}).
		Build()
}

func runPaste(cmd *cobra.Command, cfg *config.Config, opts *pasteOptions) error {
	if opts.write && opts.into == "" {
		return errors.NewWithSuggestion(errors.ExitCodeValidation,
			"--write needs a file to write to", "Pass the destination with --into FILE")
	}

	carrier, err := pasteCarrier(cmd, cfg, opts)
	if err != nil {
		return err
	}

	dest := opts.text
	if opts.into != "" {
		data, err := os.ReadFile(opts.into)
		if err != nil && !os.IsNotExist(err) {
			return errors.FileError(opts.into, err)
		}
		dest = string(data)
	}
	area := paste.NewTextArea(dest)
	if opts.at >= 0 {
		area.SetCaret(opts.at)
	}
	start, _ := area.Caret()

	comp, err := copyasgfm.FromConfig(surface.New(), clipboard.Supported, cfg)
	if err != nil {
		return err
	}
	formats := comp.Formats()
	result := PasteResult{
		Choice: paste.Classify(string([]rune(dest)[:start]), carrier.GetData(formats.Markup)).String(),
	}

	err = comp.PasteInto(carrier, area)
	switch {
	case err == nil:
		result.Handled = true
	case errors.IsSkip(err):
		// Default behavior: the plain text goes in unchanged.
		plain := carrier.GetData(formats.Plain)
		area.InsertText(func(_, _ string) string { return plain })
	default:
		return err
	}
	result.Text = area.String()
	result.Caret, _ = area.Caret()

	if opts.write {
		if err := os.WriteFile(opts.into, []byte(result.Text), 0o644); err != nil {
			return errors.FileError(opts.into, err)
		}
		notify("Pasted %s into %s", result.Choice, opts.into)
	}

	out := NewOutputWriter(outputFormat)
	out.SetWriter(cmd.OutOrStdout())
	if out.IsStructured() {
		return out.Write(result)
	}
	if opts.write {
		return nil
	}
	return out.WriteText(result.Text)
}

// pasteCarrier loads the clipboard a paste reads from.
func pasteCarrier(cmd *cobra.Command, cfg *config.Config, opts *pasteOptions) (clipboard.Carrier, error) {
	switch {
	case opts.last || opts.entry != 0:
		entry, err := historyEntry(opts.entry)
		if err != nil {
			return nil, err
		}
		return clipboard.NewMemoryCarrierFrom(entry.Payload().Map(cfg.Formats)), nil
	case opts.payload == "":
		text, err := clipboard.ReadSystemText()
		if err != nil {
			return nil, errors.ClipboardReadError(err)
		}
		return clipboard.NewMemoryCarrierFrom(map[string]string{cfg.Formats.Plain: text}), nil
	}

	var args []string
	if opts.payload != "-" {
		args = []string{opts.payload}
	}
	raw, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return nil, err
	}
	var copied CopyResult
	if err := yaml.Unmarshal([]byte(raw), &copied); err != nil {
		return nil, errors.NewWithError(errors.ExitCodeValidation, errors.ErrMsgPayloadDecode, err)
	}
	return clipboard.NewMemoryCarrierFrom(copied.Formats), nil
}

package cmd

import (
	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/config"
	"gfmclip/pkg/copyasgfm"
	"gfmclip/pkg/surface"

	"github.com/spf13/cobra"
)

// ConvertResult is the GFM for a whole HTML document.
type ConvertResult struct {
	Markup string `json:"markup" yaml:"markup"`
}

func newConvertCmd() *cobra.Command {
	var preview bool
	return NewCommand("convert [FILE]", "Convert an HTML document to GFM",
		`Serializes a whole HTML document (FILE or stdin) with the GFM rules, without
any selection or clipboard involved.`).
		WithExample(`  gfmclip convert page.html
  curl -s https://example.com/readme.html | gfmclip convert --preview`).
		WithMaxArgs(1).
		WithFlags(func(c *cobra.Command) {
			c.Flags().BoolVar(&preview, "preview", false, "Render the markdown in the terminal")
		}).
		WithConfig(func(cmd *cobra.Command, cfg *config.Config, args []string) error {
			src, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			comp, err := copyasgfm.FromConfig(surface.New(), clipboard.Supported, cfg)
			if err != nil {
				return err
			}
			markup, err := comp.Convert(src)
			if err != nil {
				return err
			}

			out := NewOutputWriter(outputFormat)
			out.SetWriter(cmd.OutOrStdout())
			if out.IsStructured() {
				return out.Write(ConvertResult{Markup: markup})
			}
			return out.WriteMarkup(markup, preview)
		}).
		Build()
}

package cmd

import (
	"fmt"

	"gfmclip/pkg/config"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

// WithConfig runs fn with the loaded configuration.
func (b *CommandBuilder) WithConfig(fn func(cmd *cobra.Command, cfg *config.Config, args []string) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, cfg, args)
	}
	return b
}

// WithFlags lets the caller define flags on the command being built.
func (b *CommandBuilder) WithFlags(fn func(cmd *cobra.Command)) *CommandBuilder {
	fn(b.cmd)
	return b
}

func (b *CommandBuilder) WithMaxArgs(maxArgs int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) > maxArgs {
			return fmt.Errorf("accepts at most %d argument(s), received %d", maxArgs, len(args))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}

package terminal

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/de-tools/job-pulse/pkg/runtime/terminal/commands"
	"github.com/de-tools/job-pulse/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *export.Reporter
	rootCmd  *cobra.Command
	now      func() time.Time
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Errors receives log output, stderr by default
	Errors io.Writer
	// Now stamps rendered reports, time.Now by default
	Now func() time.Time
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Errors == nil {
		opts.Errors = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cli := &CLI{
		reporter: export.NewReporter(opts.Output),
		now:      opts.Now,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.Errors)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, mostly for tests
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "job-pulse",
		Short:         "Job count reporting and wiki publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(commands.NewPublishCmd(cli.reporter, cli.now))
	cmd.AddCommand(commands.NewHistoryCmd(cli.reporter))

	return cmd
}

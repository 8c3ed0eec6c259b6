package cli

import (
	"context"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// Run parses args and executes the selected command, writing results to stdout
func Run(args []string) error {
	return RunWithWriter(context.Background(), args, os.Stdout)
}

// RunWithWriter executes the selected command writing results to w
func RunWithWriter(ctx context.Context, args []string, w io.Writer) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	service, err := New(ctx, options, w)
	if err != nil {
		return err
	}
	return service.Run(ctx, parser.Active.Name)
}

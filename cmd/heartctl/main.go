// heartctl inspects the reference dataset and runs classifications, either
// offline against a model artifact or remotely against a running heartd.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"heart-predictor/internal/common"
	"heart-predictor/internal/logging"

	"github.com/spf13/cobra"
)

// Version metadata injected via ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit signals a non-zero exit after the command already reported why.
var errExit = errors.New("exit")

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "heartctl: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "heartctl",
		Short:         "Heart disease prediction toolkit",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("log-level", "warn", "Log level: trace, debug, info, warn, error")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		_, err := logging.Setup(logging.Options{Level: level, Format: common.DefaultLogFormat}, stderr)
		return err
	}
	root.AddCommand(
		newRangesCmd(stdout),
		newDefaultsCmd(stdout),
		newClassifyCmd(stdout),
		newPredictCmd(stdout),
		newInfoCmd(stdout),
		newHealthCmd(stdout),
		newStatsCmd(stdout),
		newOutcomesCmd(stdout),
	)
	return root
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"heart-predictor/internal/collector"
	"heart-predictor/internal/common"
	"heart-predictor/internal/features"

	"github.com/spf13/cobra"
)

func newRangesCmd(stdout io.Writer) *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print each feature's min and max from the reference dataset",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			specs, err := features.LoadRanges(dataset)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FEATURE\tMIN\tMAX\tSTEP")
			for _, s := range specs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name,
					features.FormatValue(s.Min), features.FormatValue(s.Max), features.FormatValue(collector.Step(s)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", common.DefaultDatasetPath, "Reference dataset CSV")
	return cmd
}

func newDefaultsCmd(stdout io.Writer) *cobra.Command {
	var (
		dataset string
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the seeded default feature vector",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			specs, err := features.LoadRanges(dataset)
			if err != nil {
				return err
			}
			printVector(stdout, specs, collector.Defaults(specs, seed))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", common.DefaultDatasetPath, "Reference dataset CSV")
	cmd.Flags().Int64Var(&seed, "seed", common.DefaultSeed, "Seed for the default values")
	return cmd
}

func printVector(w io.Writer, specs []features.FeatureSpec, v features.FeatureVector) {
	for i, s := range specs {
		fmt.Fprintf(w, "%s=%s\n", s.Name, features.FormatValue(v[i]))
	}
}

package main

import (
	"fmt"
	"io"

	"heart-predictor/internal/collector"
	"heart-predictor/internal/common"
	"heart-predictor/internal/features"
	"heart-predictor/internal/ml"

	"github.com/spf13/cobra"
)

func newClassifyCmd(stdout io.Writer) *cobra.Command {
	var (
		modelPath string
		dataset   string
		seed      int64
		sets      []string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one vector offline against a model artifact",
		Long: `Classify one vector offline against a model artifact.

The vector starts from the seeded defaults; --set name=value overrides
individual features. Every value must lie inside the dataset's range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := features.LoadRanges(dataset)
			if err != nil {
				return err
			}
			svc, err := ml.Load(modelPath, ml.WithFeatureSpecs(specs))
			if err != nil {
				return err
			}
			defer svc.Close()

			v, err := collector.ParseAssignments(sets, specs, collector.Defaults(specs, seed))
			if err != nil {
				return err
			}
			label, err := svc.Classify(cmd.Context(), v)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "label=%d (%s) model=%s\n", label, label, svc.Metadata().Version)
			fmt.Fprintln(stdout, label.Message())
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", common.DefaultModelPath, "Model artifact")
	cmd.Flags().StringVar(&dataset, "dataset", common.DefaultDatasetPath, "Reference dataset CSV")
	cmd.Flags().Int64Var(&seed, "seed", common.DefaultSeed, "Seed for values not set explicitly")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Feature override as name=value (repeatable)")
	return cmd
}

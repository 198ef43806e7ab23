package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kabrax96/ConNL-dev/internal/pipeline"
	"github.com/Kabrax96/ConNL-dev/internal/source"
)

var yearsCmd = &cobra.Command{
	Use:   "years <dataset>",
	Short: "List the years available for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applySourceFlags(); err != nil {
			return err
		}
		ds, err := pipeline.Lookup(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout(cmd.Context())
		defer cancel()

		src, err := pipeline.OpenSource(ctx, appConfig.Source)
		if err != nil {
			return err
		}
		years, err := source.FindYears(ctx, src, ds.Layout)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(years) == 0 {
			fmt.Fprintf(out, "No %s files under %s\n", ds.Name, src.Describe(ds.Layout.Prefix))
			return nil
		}
		for _, y := range years {
			fmt.Fprintf(out, "%d\t%s\n", y, ds.Layout.FileName(y))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd)
	yearsCmd.Flags().StringVar(&sourceKind, "source", "", "Raw file source: s3 or local")
	yearsCmd.Flags().StringVar(&localRoot, "local-root", "", "Directory mirroring the bucket layout")
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/eval"
)

// errEvalFailed makes the command exit non-zero when a case fails.
var errEvalFailed = errors.New("evaluation failed")

func evalCmd(g *globalFlags) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "eval [dataset.yaml...]",
		Short: "Measure extraction quality against datasets with known articles",
		Long: `eval extracts each case of the given datasets and compares the article
numbers, order, categories and winning strategy with the expected ones.
Without arguments the built-in dataset is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ext, err := golegis.New(cfg)
			if err != nil {
				return err
			}

			datasets := []eval.Dataset{eval.BuiltinDataset()}
			if len(args) > 0 {
				datasets = datasets[:0]
				for _, p := range args {
					ds, err := eval.LoadDataset(p)
					if err != nil {
						return err
					}
					datasets = append(datasets, ds)
				}
			}

			evaluator := eval.NewEvaluator(ext)
			var reports []*eval.Report
			failed := 0
			for _, ds := range datasets {
				report, err := evaluator.Run(cmd.Context(), ds)
				if err != nil {
					return fmt.Errorf("evaluating %s: %w", ds.Name, err)
				}
				reports = append(reports, report)
				failed += report.Failed
				fmt.Fprintln(cmd.OutOrStdout(), eval.FormatReport(report))
			}

			if outputFile != "" {
				data, err := json.MarshalIndent(reports, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputFile, data, 0o644); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Eval report written to: %s\n", outputFile)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d case(s)", errEvalFailed, failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Path to write the JSON report")
	return cmd
}

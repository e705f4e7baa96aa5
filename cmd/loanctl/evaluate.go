package main

import (
	"errors"

	"loan-eligibility-workers/internal/store"

	"github.com/spf13/cobra"
)

var (
	evalApplicant string
	evalProduct   string
	evalBatch     string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one applicant/product pair or a whole batch",
	Example: `  loanctl evaluate --applicant 17 --product 3
  loanctl evaluate --batch spring-2024`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pair := evalApplicant != "" || evalProduct != ""
		if pair == (evalBatch != "") {
			return errors.New("set either --applicant with --product, or --batch")
		}
		if pair && (evalApplicant == "" || evalProduct == "") {
			return errors.New("--applicant and --product must be set together")
		}

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if pair {
			res, err := s.components.Eligibility.EvaluatePair(ctx, evalApplicant, evalProduct)
			if err != nil {
				return store.Classify(err, evalApplicant, evalProduct)
			}
			return printJSON(cmd.OutOrStdout(), res)
		}

		res, err := s.components.Eligibility.EvaluateBatch(ctx, evalBatch)
		if err != nil {
			return store.Classify(err, "", "")
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalApplicant, "applicant", "", "applicant id")
	evaluateCmd.Flags().StringVar(&evalProduct, "product", "", "loan product id")
	evaluateCmd.Flags().StringVar(&evalBatch, "batch", "", "batch id to screen against every product")
	rootCmd.AddCommand(evaluateCmd)
}

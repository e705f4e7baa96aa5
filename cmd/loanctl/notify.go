package main

import (
	"errors"

	"loan-eligibility-workers/internal/notification"
	"loan-eligibility-workers/internal/store"

	"github.com/spf13/cobra"
)

var (
	notifyApplicant string
	notifyBatch     string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Email pending matches to one applicant or every applicant of a batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if notifyApplicant == "" && notifyBatch == "" {
			return errors.New("set --applicant or --batch")
		}

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		outcomes, err := s.components.Notifier.SendDueNotifications(ctx, notification.Selector{
			ApplicantID: notifyApplicant,
			BatchID:     notifyBatch,
		})
		if err != nil {
			return store.Classify(err, notifyApplicant, "")
		}
		return printJSON(cmd.OutOrStdout(), outcomes)
	},
}

func init() {
	notifyCmd.Flags().StringVar(&notifyApplicant, "applicant", "", "applicant id")
	notifyCmd.Flags().StringVar(&notifyBatch, "batch", "", "batch id")
	rootCmd.AddCommand(notifyCmd)
}

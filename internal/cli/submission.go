package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var submissionHeaders = []string{"ID", "MESSAGE_ID", "TX_HASH", "STATUS", "RETRIES", "FEES", "UPDATED"}

func submissionRow(sub SubmissionResponse) []string {
	return []string{
		sub.ID,
		sub.MessageID,
		sub.TransactionHash,
		sub.Status,
		strconv.Itoa(sub.RetryCount),
		strconv.FormatInt(sub.Fees, 10),
		sub.UpdatedAt,
	}
}

// NewSubmissionCmd создаёт группу команд для управления отправками.
func NewSubmissionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submission",
		Short: "Manage settlement submissions",
	}

	cmd.AddCommand(
		newSubmissionListCmd(clientFn, outputFn),
		newSubmissionShowCmd(clientFn, outputFn),
		newSubmissionRetryCmd(clientFn, outputFn),
		newSubmissionCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newSubmissionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			subs, err := client.ListSubmissions(ListSubmissionsOpts{
				Status: status,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(subs))
			for i, sub := range subs {
				rows[i] = submissionRow(sub)
			}

			out.Print(submissionHeaders, rows, subs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, PROCESSING, COMPLETED, FAILED, RETRYING, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newSubmissionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show submission details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.GetSubmission(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "MESSAGE_ID", "TX_HASH", "STATUS", "RETRIES", "PRIOR_TX", "ERROR"}
			row := []string{
				sub.ID, sub.MessageID, sub.TransactionHash, sub.Status,
				strconv.Itoa(sub.RetryCount), sub.PriorTxHash, sub.Error,
			}

			out.Print(headers, [][]string{row}, sub)
			return nil
		},
	}
}

func newSubmissionRetryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "retry ID",
		Short: "Retry a failed submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.RetrySubmission(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Submission retried: %s (attempt %d)", sub.ID, sub.RetryCount))
			out.Print(submissionHeaders, [][]string{submissionRow(*sub)}, sub)
			return nil
		},
	}
}

func newSubmissionCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a submission that has not settled yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.CancelSubmission(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Submission cancelled: %s", sub.ID))
			return nil
		},
	}
}

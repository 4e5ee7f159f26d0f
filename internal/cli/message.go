package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewMessageCmd создаёт группу команд для работы с финансовыми сообщениями.
func NewMessageCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Submit financial messages",
	}

	cmd.AddCommand(
		newMessageSubmitCmd(clientFn, outputFn),
		newMessageStatusCmd(clientFn, outputFn),
	)

	return cmd
}

func newMessageSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var messageType string
	var file string
	var async bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an ISO 20022 message",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if messageType == "" {
				return fmt.Errorf("--type is required")
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			if async {
				accepted, err := client.SubmitMessageAsync(messageType, string(payload))
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Message accepted: %s", accepted.MessageID))
				out.Print(
					[]string{"MESSAGE_ID", "TYPE"},
					[][]string{{accepted.MessageID, accepted.MessageType}},
					accepted,
				)
				return nil
			}

			result, err := client.SubmitMessage(messageType, string(payload))
			if err != nil {
				return err
			}

			if !result.Success {
				out.Error("message rejected:")
				for _, msg := range result.Errors {
					out.Error("  " + msg)
				}
				if out.jsonMode {
					out.JSON(result)
				}
				return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
			}

			out.Success(fmt.Sprintf("Message processed: %s", result.MessageID))
			row := []string{result.MessageID, "", ""}
			if result.Transaction != nil {
				row[1] = result.Transaction.TransactionHash
				row[2] = result.Transaction.Status
			}
			out.Print(
				[]string{"MESSAGE_ID", "TX_HASH", "STATUS"},
				[][]string{row},
				result,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&messageType, "type", "", "Message type (pacs.008.001.08, pacs.009.001.08, pain.001.001.09)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the XML document")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the message instead of processing in-request")

	return cmd
}

func newMessageStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status MESSAGE_ID",
		Short: "Show submission status for a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.GetMessageSubmission(args[0])
			if err != nil {
				return err
			}

			out.Print(
				submissionHeaders,
				[][]string{submissionRow(*sub)},
				sub,
			)
			return nil
		},
	}
}

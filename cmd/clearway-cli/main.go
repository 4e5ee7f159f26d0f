// Clearway CLI — инструмент командной строки для отправки сообщений
// и управления отправками через HTTP API.
//
// Использование:
//
//	clearway [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	message     Отправка финансовых сообщений
//	submission  Управление отправками в расчётную сеть
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Clearway/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "clearway",
		Short:         "Clearway CLI — financial message settlement tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewMessageCmd(clientFn, outputFn),
		cli.NewSubmissionCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

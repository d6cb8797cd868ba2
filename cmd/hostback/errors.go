package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svartholm/hostback/internal/ledger"
)

var clearErrors bool

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show or clear the pending-error ledger",
	Long: `Show the errors recorded by previous runs. The ledger is durable:
entries stay until cleared, so an interrupted backup is not silently
forgotten. Use --clear to empty it once the errors are resolved.`,
	RunE: runErrors,
}

func init() {
	errorsCmd.Flags().BoolVar(&clearErrors, "clear", false, "clear the ledger")
}

func runErrors(cmd *cobra.Command, args []string) error {
	l := ledger.New(ledgerFile)

	if clearErrors {
		if err := l.Clear(); err != nil {
			return err
		}
		fmt.Println("Error ledger cleared.")
		return nil
	}

	entries, err := l.ListPending()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No pending errors.")
		return nil
	}

	fmt.Printf("%d pending error(s):\n", len(entries))
	for i, entry := range entries {
		fmt.Printf("  %d. %s\n", i+1, entry)
	}
	fmt.Println()
	fmt.Println("Run 'hostback errors --clear' once they are resolved.")
	return nil
}

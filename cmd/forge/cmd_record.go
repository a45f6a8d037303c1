package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"routineforge/internal/records"
)

// recordCmd groups fulfillment record operations
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Inspect fulfillment records",
}

var recordShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Print the fulfillment record for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := records.NewStore(records.StoreConfig{
			DatabasePath: cfg.Records.DatabasePath,
			Logger:       logger.Named("records"),
		})
		if err != nil {
			return fmt.Errorf("failed to open records store: %w", err)
		}
		defer store.Close()

		rec, err := store.GetRecord(args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no record for order %q", args[0])
		}
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var recordOutcomesCmd = &cobra.Command{
	Use:   "outcomes <order-id>",
	Short: "Print the run outcome history for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := records.NewStore(records.StoreConfig{
			DatabasePath: cfg.Records.DatabasePath,
			Logger:       logger.Named("records"),
		})
		if err != nil {
			return fmt.Errorf("failed to open records store: %w", err)
		}
		defer store.Close()

		outcomes, err := store.Outcomes(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordOutcomesCmd)
}

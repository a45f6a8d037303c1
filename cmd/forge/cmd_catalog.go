package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"routineforge/internal/catalog"
)

// catalogCmd groups template catalog operations
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the bundle template catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all templates (static and generated)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.NewStore(catalog.StoreConfig{
			StaticPath:   cfg.Catalog.StaticPath,
			DatabasePath: cfg.Catalog.DatabasePath,
			Logger:       logger.Named("catalog"),
		})
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer store.Close()

		templates, err := store.Templates()
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTYLE\tICONS")
		for _, t := range templates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.ID, t.Name, t.Category, t.StyleLevel, len(t.Icons))
		}
		return w.Flush()
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Print one template as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.NewStore(catalog.StoreConfig{
			StaticPath:   cfg.Catalog.StaticPath,
			DatabasePath: cfg.Catalog.DatabasePath,
			Logger:       logger.Named("catalog"),
		})
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer store.Close()

		templates, err := store.Templates()
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}
		for _, t := range templates {
			if t.ID == args[0] {
				out, err := json.MarshalIndent(t, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
		}
		return fmt.Errorf("template %q not found", args[0])
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}

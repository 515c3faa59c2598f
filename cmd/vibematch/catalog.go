// ABOUTME: CLI command for validating and listing the product catalog.
// ABOUTME: Loads the catalog without embedding it and prints every product.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and list the product catalog",
	Long:  "Load the catalog file, check every record, and list the products in catalog order.",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog file (.json or .yaml); overrides catalog.path")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path, err := catalogPath(globalConfig)
	if err != nil {
		return err
	}
	products, err := catalog.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%d products in %s", len(products), path)))
	for i, p := range products {
		_, _ = fmt.Fprintf(out, "%2d. %s\n", i+1, nameStyle.Render(p.Name))
		_, _ = fmt.Fprintf(out, "    %s\n", p.Desc)
		if len(p.Vibes) > 0 {
			_, _ = fmt.Fprintf(out, "    %s\n", dimStyle.Render("vibes: "+strings.Join(p.Vibes, ", ")))
		}
	}
	return nil
}

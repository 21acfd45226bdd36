// Catalog commands for the mechscope CLI.
package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/importer"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import catalog documents from a JSON file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		imp := importer.New(cat)
		var stats *importer.Statistics
		if isDirectory(path) {
			stats, err = imp.ImportDir(cmd.Context(), path, nil)
		} else {
			stats, err = imp.ImportFile(cmd.Context(), path)
		}
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		fmt.Printf("Imported %d file(s): %d part(s), %d fitment(s) in %s\n",
			stats.FilesImported, stats.PartsImported, stats.FitmentsImported,
			stats.Duration.Round(timeRound))
		if stats.FilesFailed > 0 {
			fmt.Printf("%d file(s) failed:\n", stats.FilesFailed)
			for _, msg := range stats.ErrorMessages {
				fmt.Printf("  %s\n", msg)
			}
		}
		return nil
	},
}

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the parts catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := searchLimit
		if limit <= 0 {
			limit = configInt(cfgKeySearchLimit, defaultSearchLimit)
		}

		parts, err := cat.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(parts) == 0 {
			fmt.Println("No parts found")
			return nil
		}

		for _, p := range parts {
			fmt.Printf("%-24s %-32s %s\n", p.ID, p.Name, p.Category)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <part-id>",
	Short: "Show one part with attributes and cross-references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		part, err := cat.Get(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("part %q not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("show: %w", err)
		}

		fmt.Printf("%s (%s)\n", part.Name, part.ID)
		if part.Category != "" {
			fmt.Printf("Category: %s\n", part.Category)
		}
		if part.Description != "" {
			fmt.Printf("%s\n", part.Description)
		}
		if len(part.Attributes) > 0 {
			fmt.Println("Attributes:")
			keys := make([]string, 0, len(part.Attributes))
			for k := range part.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %s\n", k, part.Attributes[k])
			}
		}
		if len(part.CrossRefs) > 0 {
			fmt.Printf("Cross-references: %s\n", strings.Join(part.CrossRefs, ", "))
		}
		return nil
	},
}

var (
	partsEngine   string
	partsCategory string
)

var partsCmd = &cobra.Command{
	Use:   "parts",
	Short: "List parts, optionally filtered by engine or category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		switch {
		case partsEngine != "":
			parts, err := cat.ListByEngine(ctx, partsEngine)
			if err != nil {
				return err
			}
			for _, p := range parts {
				fmt.Printf("%-24s %s\n", p.ID, p.Name)
			}
		case partsCategory != "":
			parts, err := cat.ListByCategory(ctx, partsCategory)
			if err != nil {
				return err
			}
			for _, p := range parts {
				fmt.Printf("%-24s %s\n", p.ID, p.Name)
			}
		default:
			parts, err := cat.ListAll(ctx)
			if err != nil {
				return err
			}
			for _, p := range parts {
				fmt.Printf("%-24s %-32s %s\n", p.ID, p.Name, p.Category)
			}
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := cat.ListCategories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default from config)")
	partsCmd.Flags().StringVar(&partsEngine, "engine", "", "list parts fitted to this engine")
	partsCmd.Flags().StringVar(&partsCategory, "category", "", "list parts in this category")
	partsCmd.AddCommand(categoriesCmd)
}

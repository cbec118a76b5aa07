package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robrary/cookbook/recipe"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Bulk-create recipes from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			recipes, err := decodeSeed(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "%d recipes valid\n", len(recipes))
				return nil
			}

			store, err := ctx.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			return seed(cmd, out, store, recipes)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing anything")

	return cmd
}

// decodeSeed validates every entry and reports all failures at once.
func decodeSeed(data []byte) ([]recipe.Recipe, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seed file must be a JSON array of recipes: %w", err)
	}
	var (
		recipes  []recipe.Recipe
		problems []string
	)
	for i, entry := range raw {
		r, details, err := recipe.Decode(entry)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("entry %d: not a JSON object", i+1))
		case len(details) > 0:
			problems = append(problems, fmt.Sprintf("entry %d: %s", i+1, strings.Join(details, "; ")))
		default:
			recipes = append(recipes, r)
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid seed file:\n  %s", strings.Join(problems, "\n  "))
	}
	return recipes, nil
}

func seed(cmd *cobra.Command, out io.Writer, store stores, recipes []recipe.Recipe) error {
	for _, r := range recipes {
		id, err := store.CreateRecipe(cmd.Context(), r)
		if err != nil {
			return fmt.Errorf("create %q: %w", r.Title, err)
		}
		fmt.Fprintf(out, "%4d  %s\n", id, r.Title)
	}
	fmt.Fprintf(out, "Seeded %d recipes\n", len(recipes))
	return nil
}

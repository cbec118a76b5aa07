package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robrary/cookbook/recipe"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		query string
		tags  []string
		sort  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, ok := recipe.ParseSortOrder(sort)
			if !ok || order == recipe.SortFavorites {
				return fmt.Errorf("unknown sort order %q", sort)
			}
			store, err := ctx.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			recipes, err := store.ListRecipes(cmd.Context())
			if err != nil {
				return err
			}
			state := recipe.NewState().WithQuery(query).WithSort(order)
			for _, tag := range tags {
				if !slices.Contains(state.SelectedTags, tag) {
					state = state.ToggleTag(tag)
				}
			}
			recipes = state.Visible(recipes)

			out := cmd.OutOrStdout()
			if len(recipes) == 0 {
				fmt.Fprintln(out, "No recipes found")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Serves", "Time", "Ingredients", "Steps", "Tags"},
				recipeRows(recipes),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%s %s\n", humanize.Comma(int64(len(recipes))), plural(len(recipes), "recipe", "recipes"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only recipes whose title or ingredients match")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only recipes carrying every given tag")
	cmd.Flags().StringVar(&sort, "sort", string(recipe.SortTitle), "Sort order: title, title-desc, newest, oldest")

	return cmd
}

func recipeRows(recipes []recipe.Recipe) [][]string {
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		steps := 0
		for _, d := range r.Directions {
			if !recipe.IsSection(d) {
				steps++
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			deref(r.Serves),
			deref(r.CookTime),
			strconv.Itoa(len(r.Ingredients)),
			strconv.Itoa(steps),
			strings.Join(r.Tags, ", "),
		})
	}
	return rows
}

func deref(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robrary/cookbook"
	"github.com/robrary/cookbook/importer"
	"github.com/robrary/cookbook/llm"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Import a recipe from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			im := importer.New(llm.NewClient(cfg.LLMClientConfig()), store,
				importer.WithLogger(ctx.log()),
				importer.WithTimeout(time.Duration(cfg.Import.TimeoutSeconds)*time.Second),
				importer.WithLimits(cfg.Import.MaxPageBytes, cfg.Import.MaxImageBytes),
			)
			res, err := im.Import(cmd.Context(), args[0], publicOrigin(cfg))
			if err != nil {
				var ie *importer.Error
				if errors.As(err, &ie) && len(ie.Details) > 0 {
					return fmt.Errorf("%s: %s", ie.Message, strings.Join(ie.Details, "; "))
				}
				return err
			}

			out := cmd.OutOrStdout()
			if !save {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			id, err := store.CreateRecipe(cmd.Context(), res.Recipe)
			if err != nil {
				return fmt.Errorf("save recipe: %w", err)
			}
			fmt.Fprintf(out, "Saved %q as recipe %d (source: %s)\n", res.Recipe.Title, id, res.Source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Store the imported recipe instead of printing it")

	return cmd
}

// publicOrigin is the origin written into mirrored image URLs outside a request.
func publicOrigin(cfg cookbook.Config) string {
	if cfg.Server.PublicURL != "" {
		return cfg.Server.PublicURL
	}
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

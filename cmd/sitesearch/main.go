package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/sitesearch/config"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
	srv "github.com/mohammad-safakhou/sitesearch/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "sitesearch"}
	var cfgPath string
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg)
		},
	}

	var check = &cobra.Command{
		Use:   "check",
		Short: "Fetch and validate the search index without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			store := index.NewStore(cfg.Index)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := store.Load(ctx); err != nil {
				return err
			}
			fmt.Printf("index ok: %d documents from %s\n", store.Count(), cfg.Index.SourceURL)
			return nil
		},
	}

	root.AddCommand(serve, check)
	_ = root.Execute()
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/senpaisearch/apiserver/config"
	"github.com/senpaisearch/apiserver/internal/server"
	"github.com/senpaisearch/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// indexerCmd represents the indexer command
var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Consume character change events from the broker",
	Long: `Consumes character change events published by the API server and
maintains the search index from them. Requires MQ_BACKEND to be set.

	senpaisearch indexer
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		events, err := server.NewEventBus(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if events == nil {
			return errors.New("MQ_BACKEND is required for the indexer")
		}
		defer func() {
			_ = events.Close()
		}()

		indexer := services.NewCharacterIndexer(events, cfg.MQ.EventsChannel, logger)
		if err := indexer.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexerCmd)
}

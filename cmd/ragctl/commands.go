package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"alfredoptarigan/rag-candidates/internal/models"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector index from the candidate records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		info, err := a.Indexer.Build(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed candidates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		// an in-memory store starts empty in every process
		if a.Store.Name() == "memory" {
			if _, err := a.Indexer.Build(cmd.Context()); err != nil {
				return fmt.Errorf("building in-memory index: %w", err)
			}
		}

		req := models.ChatRequest{Question: strings.Join(args, " ")}
		prepared, _ := cmd.Flags().GetBool("prepared")
		if cmd.Flags().Changed("prepared") || cmd.Flags().Changed("english-min") || cmd.Flags().Changed("candidate") {
			req.Filters = &models.ChatFilters{}
			if cmd.Flags().Changed("prepared") {
				req.Filters.Prepared = &prepared
			}
			req.Filters.EnglishMin, _ = cmd.Flags().GetString("english-min")
			req.Filters.CandidateIDs, _ = cmd.Flags().GetStringSlice("candidate")
		}

		result, err := a.Chat.Ask(cmd.Context(), req)
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			return printJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
		for _, src := range result.Sources {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s [%s] %.3f\n", src.CandidateID, src.Section, src.Score)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd, askCmd)

	askCmd.Flags().Bool("prepared", false, "only prepared candidates")
	askCmd.Flags().String("english-min", "", "minimum English level (A1..C2, Basic..Native)")
	askCmd.Flags().StringSlice("candidate", nil, "restrict to these candidate ids")
	askCmd.Flags().Bool("raw", false, "print the full JSON result")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

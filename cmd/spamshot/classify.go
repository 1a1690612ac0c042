package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/spamshot/internal/domain/analysis"
)

// Verdict is what both subcommands print.
type Verdict struct {
	File            string   `json:"file,omitempty"`
	IsSpam          bool     `json:"isSpam"`
	ExtractedNumber string   `json:"extractedNumber"`
	RawText         string   `json:"rawText"`
	Normalized      string   `json:"normalized"`
	OriginalBytes   int      `json:"originalBytes,omitempty"`
	CompressedBytes int      `json:"compressedBytes,omitempty"`
	Attempts        []string `json:"attempts,omitempty"`
}

func verdictFor(text string) Verdict {
	return Verdict{
		IsSpam:          analysis.IsSpam(text),
		ExtractedNumber: analysis.ExtractPhone(text),
		RawText:         text,
		Normalized:      analysis.Normalize(text),
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify text that was already extracted from a screenshot",
		Example: `  spamshot classify "Hati-hati S P A M dari +62 812 3456 7890"
  spamshot classify 5p4m`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, verdictFor(strings.Join(args, " ")))
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

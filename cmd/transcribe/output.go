package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStats(result *types.TranscriptionResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stat", "Value"})
	tw.AppendRows([]table.Row{
		{"Chunks", result.ChunkCount},
		{"Processing time", fmt.Sprintf("%.2fs", result.Stats.TotalProcessingTime)},
		{"Characters/sec", fmt.Sprintf("%.2f", result.Stats.WordsPerSecond)},
		{"File size", humanize.Bytes(uint64(result.Stats.FileSizeInBytes))},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

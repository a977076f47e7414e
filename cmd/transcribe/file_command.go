package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/chunked-transcription/internal/config"
	"github.com/codebuildervaibhav/chunked-transcription/internal/logging"
	"github.com/codebuildervaibhav/chunked-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/chunked-transcription/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcription/internal/types"
)

func newFileCommand(configPath *string) *cobra.Command {
	var (
		chunkMS int
		workers int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Transcribe a local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("chunk-ms") {
				cfg.Audio.ChunkLengthMS = chunkMS
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers.Chunks = workers
			}
			cfg.Workers.Requests = 1
			if err := cfg.Validate(); err != nil {
				return err
			}

			result, err := transcribeFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(result))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkMS, "chunk-ms", 0, "Maximum chunk length in milliseconds (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent chunk transcriptions (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// transcribeFile copies path into the temp store and runs it through a
// single-request pool
func transcribeFile(cmd *cobra.Command, cfg *config.Config, path string) (*types.TranscriptionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	f, err := os.Open(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file does not exist: %s", absPath)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", absPath)
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	store, err := storage.NewTempStore(cfg.Storage.TempDir)
	if err != nil {
		return nil, err
	}
	handle, err := store.Save(info.Name(), f)
	if err != nil {
		return nil, err
	}

	pool, err := pipeline.New(cfg, nil, nil, logger)
	if err != nil {
		handle.Release()
		return nil, err
	}
	pool.Start()
	defer pool.Stop()

	return pool.Submit(queue.NewJob(types.SourceCLI, handle))
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goodtune/burner/internal/usage"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [flags] FILE",
	Short: "Ingest a flushed batch from a JSON file",
	Long: `Read a batch in the same JSON shape accepted by POST /time/flush and fold
it into the configured store. Use "-" to read the batch from stdin.`,
	Example: `  burner ingest batch.json
  cat batch.json | burner ingest -`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	batch, err := readBatch(args[0])
	if err != nil {
		return err
	}

	env, err := openCommandEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := newIngester(env.cfg.Tracking, env.store, env.logger).Ingest(context.Background(), batch)
	if err != nil {
		return fmt.Errorf("failed to ingest batch: %w", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	_, _ = green.Fprintf(os.Stdout, "Accepted %s sessions (%d segments, %ds)\n", result.SuccessRate(), result.Segments, result.Seconds)
	for _, rej := range result.Rejections {
		_, _ = red.Fprintf(os.Stdout, "  rejected %s: %s\n", rej.ID, rej.Reason)
	}
	return nil
}

func readBatch(path string) (usage.Batch, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return usage.Batch{}, fmt.Errorf("failed to open batch: %w", err)
		}
		defer f.Close()
		r = f
	}

	var batch usage.Batch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return usage.Batch{}, fmt.Errorf("failed to decode batch: %w", err)
	}
	return batch, nil
}

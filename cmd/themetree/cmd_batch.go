package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"themetree/internal/llm"
	"themetree/internal/mindmap"
	"themetree/internal/store"
)

var (
	batchPromptsFile string
	batchSystem      string
	batchWorkers     int
	batchGated       bool
	batchNormalize   bool
)

// batchCmd runs many independent prompts with bounded concurrency.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a file of prompts concurrently and print responses in order",
	Long: `Reads one prompt per line and runs them against the configured model
with a bounded worker pool (or a cooperative concurrency gate with
--gated). Responses print in input order; a prompt that exhausts its
retries yields an empty line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := readLines(batchPromptsFile)
		if err != nil {
			return err
		}
		if len(prompts) == 0 {
			return fmt.Errorf("no prompts in %s", batchPromptsFile)
		}

		client, err := llm.NewClient(cmd.Context(), modelSpec, cfg)
		if err != nil {
			return err
		}

		opts := llm.BatchOptions{Workers: batchWorkers}
		if batchNormalize {
			opts.Transforms = []func(string) string{mindmap.Normalize}
		}

		run := llm.RunParallel
		if batchGated {
			run = llm.RunGated
		}
		results, err := run(cmd.Context(), client, prompts, batchSystem, opts)
		if err != nil {
			return err
		}

		failed := 0
		for _, res := range results {
			if res == "" {
				failed++
			}
			fmt.Println(res)
		}
		logger.Info("batch complete",
			zap.Int("prompts", len(prompts)),
			zap.Int("failed", failed))
		return nil
	},
}

// archiveCmd lists the SQLite archive.
var archiveCmd = &cobra.Command{
	Use:   "archive [path]",
	Short: "List mind maps stored in a SQLite archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := store.Open(args[0])
		if err != nil {
			return err
		}
		defer archive.Close()

		entries, err := archive.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%4d  %-30s  %-10s  %s\n", e.ID, e.Theme, e.MapType, e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func init() {
	batchCmd.Flags().StringVarP(&batchPromptsFile, "prompts", "p", "", "File with one prompt per line (required)")
	batchCmd.Flags().StringVarP(&batchSystem, "system", "s", "", "Shared system prompt")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", llm.DefaultBatchWorkers, "Concurrency bound")
	batchCmd.Flags().BoolVar(&batchGated, "gated", false, "Use the cooperative gate strategy instead of the worker pool")
	batchCmd.Flags().BoolVar(&batchNormalize, "normalize", false, "Strip code fences and prose from each response")
	_ = batchCmd.MarkFlagRequired("prompts")
}

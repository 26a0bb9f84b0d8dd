package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"themetree/internal/llm"
	"themetree/internal/mindmap"
)

var (
	refTheme     string
	refFocus     string
	refMapType   string
	refInput     string
	refOutputDir string
	refFilename  string
	refCount     int
	refWorkers   int
)

// refineCmd refines an existing serialized tree, or bootstraps N
// refinements in parallel when --count is given.
var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine an existing mind map with a reasoning model",
	RunE: func(cmd *cobra.Command, args []string) error {
		initial, err := os.ReadFile(refInput)
		if err != nil {
			return fmt.Errorf("failed to read initial mindmap %s: %w", refInput, err)
		}

		client, err := llm.NewClient(cmd.Context(), modelSpec, cfg)
		if err != nil {
			return err
		}
		gen := mindmap.NewGenerator(client)
		req := mindmap.Request{Theme: refTheme, Focus: refFocus, MapType: refMapType}

		if refCount > 1 {
			results := gen.BootstrapRefined(cmd.Context(), req, string(initial),
				refOutputDir, refFilename, refCount, refWorkers)
			failed := 0
			for _, res := range results {
				if res.Error != "" {
					failed++
				}
			}
			logger.Info("bootstrap complete",
				zap.Int("total", len(results)),
				zap.Int("failed", failed),
				zap.String("output_dir", refOutputDir))
			return nil
		}

		tree, res, err := gen.GenerateRefined(cmd.Context(), req, string(initial),
			refOutputDir, refFilename+".json")
		if err != nil {
			return err
		}
		if tree == nil {
			return fmt.Errorf("refinement failed: %s", res.Error)
		}
		fmt.Print(tree.AsText(""))
		return nil
	},
}

// dynamicCmd evolves a map over a sequence of named intervals.
var dynamicCmd = &cobra.Command{
	Use:   "dynamic",
	Short: "Evolve a mind map over named intervals, each refining the last",
	RunE: func(cmd *cobra.Command, args []string) error {
		var initial string
		if refInput != "" {
			data, err := os.ReadFile(refInput)
			if err != nil {
				return fmt.Errorf("failed to read initial mindmap %s: %w", refInput, err)
			}
			initial = string(data)
		}

		client, err := llm.NewClient(cmd.Context(), modelSpec, cfg)
		if err != nil {
			return err
		}
		gen := mindmap.NewGenerator(client)

		var intervals []mindmap.Interval
		for _, name := range strings.Split(dynIntervals, ",") {
			if name = strings.TrimSpace(name); name != "" {
				intervals = append(intervals, mindmap.Interval{Name: name})
			}
		}
		if len(intervals) == 0 {
			return fmt.Errorf("no interval names given")
		}

		req := mindmap.Request{Theme: refTheme, Focus: refFocus, MapType: refMapType}
		trees, _, err := gen.GenerateDynamic(cmd.Context(), req, initial, intervals, refOutputDir)
		if err != nil {
			return err
		}

		for _, interval := range intervals {
			fmt.Printf("== %s ==\n", interval.Name)
			if tree := trees[interval.Name]; tree != nil {
				fmt.Print(tree.AsText(""))
			} else {
				fmt.Println("(failed)")
			}
		}
		return nil
	},
}

var dynIntervals string

func init() {
	for _, c := range []*cobra.Command{refineCmd, dynamicCmd} {
		c.Flags().StringVarP(&refTheme, "theme", "t", "", "Main theme to analyze (required)")
		c.Flags().StringVarP(&refFocus, "focus", "f", "", "Analyst focus")
		c.Flags().StringVar(&refMapType, "map-type", "theme", "Prompt template to use")
		c.Flags().StringVarP(&refInput, "input", "i", "", "Path to the initial serialized tree")
		c.Flags().StringVar(&refOutputDir, "output-dir", "./refined_mindmaps", "Directory for result bundles")
		_ = c.MarkFlagRequired("theme")
	}
	refineCmd.Flags().StringVar(&refFilename, "filename", "refined_mindmap", "Result filename stem")
	refineCmd.Flags().IntVar(&refCount, "count", 1, "Number of refinements to bootstrap")
	refineCmd.Flags().IntVar(&refWorkers, "workers", 10, "Worker pool width for --count > 1")
	_ = refineCmd.MarkFlagRequired("input")
	dynamicCmd.Flags().StringVar(&dynIntervals, "intervals", "", "Comma-separated interval names (required)")
	_ = dynamicCmd.MarkFlagRequired("intervals")
}

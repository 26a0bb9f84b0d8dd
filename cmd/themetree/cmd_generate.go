package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"themetree/internal/llm"
	"themetree/internal/mindmap"
	"themetree/internal/store"
)

var (
	genTheme       string
	genFocus       string
	genMapType     string
	genInstruction string
	genOutput      string
	genArchivePath string
)

// generateCmd runs one-shot generation and prints the tree.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a mind map for a theme in one LLM call",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := llm.NewClient(cmd.Context(), modelSpec, cfg)
		if err != nil {
			return err
		}

		gen := mindmap.NewGenerator(client)
		tree, res, err := gen.GenerateOneShot(cmd.Context(), mindmap.Request{
			Theme:        genTheme,
			Focus:        genFocus,
			MapType:      genMapType,
			Instructions: genInstruction,
		})
		if err != nil {
			return err
		}

		logger.Info("mind map generated",
			zap.String("theme", genTheme),
			zap.Int("leaves", len(tree.TerminalLabels())))

		fmt.Print(tree.AsText(""))

		if genOutput != "" {
			if err := os.WriteFile(genOutput, []byte(res.MindmapJSON), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", genOutput, err)
			}
			logger.Info("tree written", zap.String("path", genOutput))
		}

		if genArchivePath != "" {
			archive, err := store.Open(genArchivePath)
			if err != nil {
				return err
			}
			defer archive.Close()
			id, err := archive.Save(cmd.Context(), genTheme, genFocus, genMapType, tree)
			if err != nil {
				return err
			}
			logger.Info("tree archived", zap.Int64("id", id))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genTheme, "theme", "t", "", "Main theme to analyze (required)")
	generateCmd.Flags().StringVarP(&genFocus, "focus", "f", "", "Analyst focus guiding sub-theme generation")
	generateCmd.Flags().StringVar(&genMapType, "map-type", "theme", "Prompt template to use")
	generateCmd.Flags().StringVar(&genInstruction, "instructions", "", "Custom instruction override")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the serialized tree to this file")
	generateCmd.Flags().StringVar(&genArchivePath, "archive", "", "Also save the tree to this SQLite archive")
	_ = generateCmd.MarkFlagRequired("theme")
}

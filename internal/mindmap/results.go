package mindmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"themetree/internal/logging"
)

// Result bundles one generation outcome the way it is persisted: the
// raw LLM text, the serialized tree (empty string on failure), the
// flattened rows (null on failure) and, on failure, the error string.
type Result struct {
	MindmapText string `json:"mindmap_text"`
	MindmapJSON string `json:"mindmap_json"`
	Rows        []Row  `json:"mindmap_df"`
	Error       string `json:"error,omitempty"`
	Grounded    bool   `json:"grounded,omitempty"`
}

// SaveResult writes a result bundle as JSON to outputDir/filename,
// creating the directory if absent and silently overwriting any
// existing file.
func SaveResult(res Result, outputDir, filename string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, filename)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result %s: %w", path, err)
	}

	logging.Store("saved result to %s", path)
	return nil
}

// LoadResult reads a result bundle back from outputDir/filename.
func LoadResult(outputDir, filename string) (Result, error) {
	path := filepath.Join(outputDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read result %s: %w", path, err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal result %s: %w", path, err)
	}
	return res, nil
}

// resultExists reports whether a result file is already on disk.
func resultExists(outputDir, filename string) bool {
	_, err := os.Stat(filepath.Join(outputDir, filename))
	return err == nil
}

package services

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Batch file formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath guesses the batch format from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer format of %q, pass --format", path)
	}
}

// DecodeBatch reads a whole batch document. JSON numbers are kept as
// json.Number so prices survive without float rounding.
func DecodeBatch(r io.Reader, format string) (*Batch, error) {
	var batch Batch
	switch strings.ToLower(format) {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&batch); err != nil {
			return nil, fmt.Errorf("failed to decode JSON batch: %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.NewDecoder(r).Decode(&batch); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode YAML batch: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported batch format: %s", format)
	}
	return &batch, nil
}

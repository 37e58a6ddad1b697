// Package export loads and validates the channel export document.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"channel_etl/internal/model"
)

var validate = validator.New()

// Load reads the export JSON at path and validates its schema. Any
// violation is fatal: a run must not produce output from a bad document.
func Load(path string) (*model.Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an export document.
func Parse(data []byte) (*model.Export, error) {
	var doc model.Export
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if doc.MediaFiles == nil {
		return nil, fmt.Errorf("validate export: media_files is required")
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate export: %w", err)
	}
	return &doc, nil
}

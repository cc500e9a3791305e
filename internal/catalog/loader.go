package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"careermatch/internal/errors"
	"careermatch/internal/types"

	"gopkg.in/yaml.v3"
)

// document is the on-disk catalog layout.
type document struct {
	Careers []types.Career `json:"careers" yaml:"careers"`
}

// Load returns the catalog stored at path, or the built-in catalog when path
// is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read catalog file", err).
			WithContext("path", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported catalog format %q, expected .yaml, .yml or .json", ext), nil).
			WithContext("path", path)
	}
}

// ParseYAML decodes a catalog document. Requirement order follows the
// document's mapping order.
func ParseYAML(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidCatalog, "failed to parse YAML catalog", err)
	}
	return New(doc.Careers)
}

// ParseJSON decodes a catalog document.
func ParseJSON(data []byte) (*Catalog, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidCatalog, "failed to parse JSON catalog", err)
	}
	return New(doc.Careers)
}

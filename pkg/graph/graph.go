package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowlens/pkg/errors"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// FormatFromPath infers the document format from a file extension.
// Anything other than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// MarshalDocument encodes a document in the given format.
func MarshalDocument(doc *Document, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(doc, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument encodes a document to w in the given format.
func WriteDocument(doc *Document, w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.ValidateFormat(format, FormatJSON, FormatYAML)
	}
	return nil
}

// WriteDocumentFile writes a document to path, picking the format from the
// file extension.
func WriteDocumentFile(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(doc, f, FormatFromPath(path))
}

// ReadDocument decodes a document from r. It checks only the encoding; use
// [FromDocument] to validate the graph itself.
func ReadDocument(r io.Reader, format string) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json document")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml document")
		}
	default:
		return nil, errors.ValidateFormat(format, FormatJSON, FormatYAML)
	}
	return &doc, nil
}

// ReadDocumentFile reads a document from path, picking the format from the
// file extension.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f, FormatFromPath(path))
}

// LoadModelFile reads and validates a graph document in one step.
func LoadModelFile(path string) (*Model, error) {
	doc, err := ReadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

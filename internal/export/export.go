// Package export serializes analyzed call graphs to JSON, YAML, and Neo4j.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// Document is the exported shape: the graph plus the source file it came
// from, so downstream consumers can trace entries back.
type Document struct {
	File  string               `json:"file" yaml:"file"`
	Graph *flowgraph.CallGraph `json:"graph" yaml:"graph"`
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// WriteYAML writes the document as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode yaml export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write yaml export: %w", err)
	}
	return nil
}

package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Traces *Traces     `json:"traces,omitempty"`
}

// ExportJSON writes a stored run as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, traces *Traces) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Traces: traces})
}

package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format returns the serialization format implied by a file extension.
func Format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

// LoadFile decodes a JSON or YAML artifact into out based on the file extension.
func LoadFile(path string, out any) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, format, out)
}

// SaveFile encodes v as JSON or YAML depending on the file extension.
func SaveFile(path string, v any) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, format, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Decode reads one artifact from r.
func Decode(r io.Reader, format string, out any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.NewDecoder(r).Decode(out)
	case "json":
		return json.NewDecoder(r).Decode(out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Encode writes one artifact to w in a human-readable layout.
func Encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// LoadProblem reads and validates a problem model.
func LoadProblem(path string) (ProblemModel, error) {
	var p ProblemModel
	if err := LoadFile(path, &p); err != nil {
		return ProblemModel{}, fmt.Errorf("load problem %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return ProblemModel{}, fmt.Errorf("invalid problem %s: %w", path, err)
	}
	return p, nil
}

// LoadFleetStructure reads a fleet structure.
func LoadFleetStructure(path string) (FleetStructure, error) {
	var f FleetStructure
	if err := LoadFile(path, &f); err != nil {
		return FleetStructure{}, fmt.Errorf("load fleet structure %s: %w", path, err)
	}
	return f, nil
}

package bank

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/testprep/internal/assessment"
)

//go:embed sample.yaml
var sampleYAML []byte

// Format is the encoding of a bank file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported bank file extension %q", filepath.Ext(path))
	}
}

// ItemImport is one question as written in a bank file.
type ItemImport struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []string `json:"options" yaml:"options"`
	Correct int      `json:"correct" yaml:"correct"`
}

// File is the on-disk shape of an item bank.
type File struct {
	Name  string       `json:"name" yaml:"name"`
	Items []ItemImport `json:"items" yaml:"items"`
}

// Parse decodes a bank file and validates every item.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported bank format %q", format)
	}
	if _, err := f.Bank(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the bank file at path. The raw bytes are returned
// alongside so callers can hash them.
func Load(path string) (*File, []byte, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = NameFromPath(path)
	}
	return f, data, nil
}

// NameFromPath returns the file name of path without its extension.
func NameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Sample returns the built-in five-question aptitude bank.
func Sample() *File {
	f, err := Parse(sampleYAML, FormatYAML)
	if err != nil {
		panic("bank: embedded sample is invalid: " + err.Error())
	}
	return f
}

// EngineItems converts the file's questions to engine items.
func (f *File) EngineItems() []assessment.Item {
	items := make([]assessment.Item, len(f.Items))
	for i, it := range f.Items {
		items[i] = assessment.Item{
			ID:      i,
			Prompt:  it.Prompt,
			Options: it.Options,
			Correct: it.Correct,
		}
	}
	return items
}

// Bank builds a validated engine bank from the file.
func (f *File) Bank() (*assessment.Bank, error) {
	return assessment.NewBank(f.EngineItems())
}

// Hash returns the hex sha256 of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

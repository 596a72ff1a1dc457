package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Inventory document formats
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// FormatFromPath picks the document format from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported inventory file extension %q (want .json or .toml)", filepath.Ext(path))
	}
}

func encode(w io.Writer, format string, data any) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(data)
	default:
		return fmt.Errorf("unsupported storage format %q", format)
	}
}

func decode(r io.Reader, format string, data any) error {
	switch format {
	case FormatJSON:
		return json.NewDecoder(r).Decode(data)
	case FormatTOML:
		_, err := toml.NewDecoder(r).Decode(data)
		return err
	default:
		return fmt.Errorf("unsupported storage format %q", format)
	}
}

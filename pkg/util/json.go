package util

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
)

// PrintPrettyJSON prints v as indented JSON on pterm's default output.
// Nil slices print as [] rather than null.
func PrintPrettyJSON(v any) error {
	b, err := MarshalPretty(v)
	if err != nil {
		return err
	}
	pterm.Println(string(b))
	return nil
}

// MarshalPretty encodes v with two-space indentation.
func MarshalPretty(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	if ids, ok := v.([]string); ok && ids == nil {
		return []byte("[]"), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return b, nil
}

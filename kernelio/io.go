package kernelio

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("kernelio: encoding document: %w", err)
	}
	return nil
}

// Decode reads a kernel document from r.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("kernelio: decoding document: %w", err)
	}
	return doc, nil
}

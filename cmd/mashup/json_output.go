package main

import (
	"encoding/json"
	"io"
)

// printJSON writes v as indented JSON. HTML escaping is off so email
// addresses and error text read naturally.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"

	"github.com/umkm-labs/warung/fields"
	"gopkg.in/yaml.v3"
)

// renderConfig writes the effective configuration with secrets masked.
func renderConfig(w io.Writer, cfg fields.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

package grammar

import (
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes p and writes the document to w, followed by a newline.
// The output can be read back with [Codec.ReadJSON].
func (c *Codec) WriteJSON(p *Parser, w io.Writer) error {
	data, err := c.Encode(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportJSON writes p to a JSON file at path.
// This is a convenience wrapper around [Codec.WriteJSON] for file-based output.
func (c *Codec) ExportJSON(p *Parser, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.WriteJSON(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

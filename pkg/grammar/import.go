package grammar

import (
	"fmt"
	"io"
	"os"
)

// ReadJSON reads a whole document from r and decodes it with
// [Codec.Decode]. ReadJSON does not close r.
func (c *Codec) ReadJSON(r io.Reader) (*Parser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return c.Decode(data)
}

// ImportJSON reads the JSON file at path and returns the decoded grammar.
//
// If the file cannot be opened the error wraps the cause with the path.
// Otherwise ImportJSON returns the same errors as [Codec.ReadJSON].
func (c *Codec) ImportJSON(path string) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.ReadJSON(f)
}

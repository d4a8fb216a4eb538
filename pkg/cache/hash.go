package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	goslug "github.com/gosimple/slug"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Keyer builds cache keys for grammar documents.
type Keyer interface {
	// DocumentKey addresses a document by its program and content.
	DocumentKey(prog string, data []byte) string

	// LatestKey addresses the pointer to the last document stored for prog.
	LatestKey(prog string) string
}

// DefaultKeyer produces keys of the form grammar:<slug>:<sha256> and
// latest:<slug>.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) DocumentKey(prog string, data []byte) string {
	return "grammar:" + progSlug(prog) + ":" + Hash(data)
}

func (DefaultKeyer) LatestKey(prog string) string {
	return "latest:" + progSlug(prog)
}

// progSlug folds a program name into a key component. Names with no
// sluggable characters fall back to "unnamed".
func progSlug(prog string) string {
	s := goslug.Make(strings.TrimSpace(prog))
	if s == "" {
		return "unnamed"
	}
	return s
}

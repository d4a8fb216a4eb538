package grammar

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/observability"
	"github.com/matzehuels/argdump/pkg/types"
	"github.com/matzehuels/argdump/pkg/value"
)

// SchemaURL identifies version 1 of the document format.
const SchemaURL = "https://childmindresearch.github.io/argdump/schema-v1.json"

// DefaultMaxDepth bounds sub-command nesting on encode and decode.
const DefaultMaxDepth = value.DefaultMaxDepth

// Options configures a [Codec]. The zero value is strict, uses the default
// type registry, and omits the environment block.
type Options struct {
	// Registry resolves type references on decode. Nil uses types.Default().
	Registry *types.Registry

	// Lenient drops unresolvable type converters instead of failing.
	Lenient bool

	// MaxDepth bounds sub-command nesting and the container nesting of
	// decoded values. Zero uses DefaultMaxDepth.
	MaxDepth int

	// IncludeEnv adds the "$env" block on encode.
	IncludeEnv bool

	// SchemaURL is written as "$schema". Empty uses SchemaURL.
	SchemaURL string

	// Enums rebuilds encoded enum members on decode.
	Enums value.EnumLookup

	// Logger receives debug records for dropped fields and types.
	Logger *log.Logger
}

// Codec encodes grammars to documents and back.
type Codec struct {
	opts Options
}

// NewCodec returns a codec with defaults filled in.
func NewCodec(opts Options) *Codec {
	if opts.Registry == nil {
		opts.Registry = types.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.SchemaURL == "" {
		opts.SchemaURL = SchemaURL
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Codec{opts: opts}
}

// Options returns the codec's effective options.
func (c *Codec) Options() Options { return c.opts }

// Encode renders p as an indented JSON document. Grammars that break a
// record invariant, contain a parser cycle, or nest deeper than MaxDepth
// are rejected.
func (c *Codec) Encode(p *Parser) (data []byte, err error) {
	start := time.Now()
	defer func() {
		observability.Codec().OnEncode(progOf(p), len(data), time.Since(start), err)
	}()
	doc, err := c.document(p)
	if err != nil {
		return nil, err
	}
	return marshal(doc, true)
}

// Decode rebuilds a grammar from a JSON document. Only input that is not a
// JSON object, a strict type failure, or excessive nesting is an error;
// malformed fields are dropped.
func (c *Codec) Decode(data []byte) (p *Parser, err error) {
	start := time.Now()
	defer func() {
		observability.Codec().OnDecode(progOf(p), len(data), time.Since(start), err)
	}()
	return c.decodeDocument(data)
}

// EncodeDocument encodes p with the default options.
func EncodeDocument(p *Parser, includeEnv bool) ([]byte, error) {
	return NewCodec(Options{IncludeEnv: includeEnv}).Encode(p)
}

// DecodeDocument decodes data with the default registry.
func DecodeDocument(data []byte, strict bool) (*Parser, error) {
	return NewCodec(Options{Lenient: !strict}).Decode(data)
}

func progOf(p *Parser) string {
	if p == nil {
		return ""
	}
	return p.Prog
}

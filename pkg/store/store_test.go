package store

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/cache"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/value"
)

func toolParser(output string) *grammar.Parser {
	p := grammar.NewParser("my tool")
	p.Add(grammar.Positional("input"))
	out := p.Add(grammar.Option("", "-o", "--output"))
	out.Default = value.String(output)
	return p
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(cache.NewMemoryCache(0), Options{})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	key, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "grammar:my-tool:"), key)

	p, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "my tool", p.Prog)
	require.NotNil(t, p.Lookup("output"))
	assert.Equal(t, "out.txt", p.Lookup("output").Default.Str())
}

func TestPutIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	k1, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)
	k2, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)
	k3, err := s.Put(ctx, toolParser("other.txt"))
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, _, err := s.Latest(ctx, "my tool")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	_, err = s.Put(ctx, toolParser("a.txt"))
	require.NoError(t, err)
	want, err := s.Put(ctx, toolParser("b.txt"))
	require.NoError(t, err)

	p, key, err := s.Latest(ctx, "my tool")
	require.NoError(t, err)
	assert.Equal(t, want, key)
	assert.Equal(t, "b.txt", p.Lookup("output").Default.Str())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	key, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	// the latest pointer now dangles
	_, _, err = s.Latest(ctx, "my tool")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestPutDocument(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	data, err := grammar.EncodeDocument(toolParser("out.txt"), false)
	require.NoError(t, err)

	key, err := s.PutDocument(ctx, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "grammar:my-tool:"), key)

	got, err := s.GetDocument(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = s.PutDocument(ctx, []byte("not json"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDocument))
}

func TestPutRejectsInvalidGrammar(t *testing.T) {
	s := newStore(t)
	_, err := s.Put(context.Background(), nil)
	assert.Error(t, err)
}

func TestScopedKeys(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryCache(0)
	a := New(backend, Options{Keyer: cache.NewScopedKeyer(nil, "a:")})
	b := New(backend, Options{Keyer: cache.NewScopedKeyer(nil, "b:")})

	_, err := a.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)

	_, err = a.LatestKey(ctx, "my tool")
	assert.NoError(t, err)
	_, err = b.LatestKey(ctx, "my tool")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	s := New(fc, Options{})

	key, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)

	// a second store over the same directory sees the document
	other, err := cache.NewFileCache(fc.Dir())
	require.NoError(t, err)
	p, err := New(other, Options{}).Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "my tool", p.Prog)
}

func TestLogsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, log.DebugLevel))
	s := newStore(t)

	key, err := s.Put(ctx, toolParser("out.txt"))
	require.NoError(t, err)
	_, err = s.Get(ctx, key)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "stored grammar")
	assert.Contains(t, out, "loaded grammar")
	assert.Contains(t, out, "elapsed=")
}

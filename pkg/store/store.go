// Package store keeps encoded grammar documents in a [cache.Cache].
//
// Documents are content addressed: [Store.Put] returns a key derived from
// the program name and the document bytes, so storing the same grammar
// twice yields the same key. The store also records, per program, the key
// of the document stored last, readable through [Store.Latest].
//
//	s := store.New(cache.NewMemoryCache(0), store.Options{})
//	key, err := s.Put(ctx, parser)
//	...
//	p, err := s.Get(ctx, key)
package store

import (
	"context"
	"sync"
	"time"

	"github.com/buger/jsonparser"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/cache"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
)

// Options configures a [Store].
type Options struct {
	// Codec encodes and decodes documents. Nil uses a strict default codec.
	Codec *grammar.Codec

	// Keyer builds cache keys. Nil uses cache.NewDefaultKeyer().
	Keyer cache.Keyer

	// TTL bounds how long documents are kept. Zero keeps them until the
	// backend evicts them.
	TTL time.Duration
}

// Store reads and writes grammar documents.
type Store struct {
	cache cache.Cache
	codec *grammar.Codec
	keyer cache.Keyer
	ttl   time.Duration

	// mu keeps a document write and its latest pointer together.
	mu sync.Mutex
}

// New creates a store over c.
func New(c cache.Cache, opts Options) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.Codec == nil {
		opts.Codec = grammar.NewCodec(grammar.Options{})
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	return &Store{cache: c, codec: opts.Codec, keyer: opts.Keyer, ttl: opts.TTL}
}

// Codec returns the store's codec.
func (s *Store) Codec() *grammar.Codec { return s.codec }

// Put encodes p and stores the document. It returns the document key.
func (s *Store) Put(ctx context.Context, p *grammar.Parser) (string, error) {
	data, err := s.codec.Encode(p)
	if err != nil {
		return "", err
	}
	return s.put(ctx, p.Prog, data)
}

// PutDocument stores an already encoded document after checking that it
// decodes.
func (s *Store) PutDocument(ctx context.Context, data []byte) (string, error) {
	if _, err := s.codec.Decode(data); err != nil {
		return "", err
	}
	prog, _ := jsonparser.GetString(data, "prog")
	return s.put(ctx, prog, data)
}

func (s *Store) put(ctx context.Context, prog string, data []byte) (string, error) {
	key := s.keyer.DocumentKey(prog, data)
	progress := logging.NewProgress(logging.FromContext(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "store document %s", key)
	}
	if err := s.cache.Set(ctx, s.keyer.LatestKey(prog), []byte(key), s.ttl); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "store latest pointer for %q", prog)
	}
	progress.Done("stored grammar", "prog", prog, "key", key, "bytes", len(data))
	return key, nil
}

// GetDocument returns the raw document under key.
func (s *Store) GetDocument(ctx context.Context, key string) ([]byte, error) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read document %s", key)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no document stored under %s", key)
	}
	return data, nil
}

// Get decodes the document under key.
func (s *Store) Get(ctx context.Context, key string) (*grammar.Parser, error) {
	progress := logging.NewProgress(logging.FromContext(ctx))
	data, err := s.GetDocument(ctx, key)
	if err != nil {
		return nil, err
	}
	p, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	progress.Done("loaded grammar", "key", key, "bytes", len(data))
	return p, nil
}

// LatestKey returns the key of the document stored last for prog.
func (s *Store) LatestKey(ctx context.Context, prog string) (string, error) {
	ptr, ok, err := s.cache.Get(ctx, s.keyer.LatestKey(prog))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "read latest pointer for %q", prog)
	}
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "no grammar stored for %q", prog)
	}
	return string(ptr), nil
}

// Latest decodes the document stored last for prog.
func (s *Store) Latest(ctx context.Context, prog string) (*grammar.Parser, string, error) {
	key, err := s.LatestKey(ctx, prog)
	if err != nil {
		return nil, "", err
	}
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return p, key, nil
}

// Delete removes the document under key. A latest pointer naming it is
// left in place and resolves to NOT_FOUND afterwards.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Delete(ctx, key); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete document %s", key)
	}
	logging.FromContext(ctx).Debug("deleted grammar", "key", key)
	return nil
}

// Close closes the underlying cache.
func (s *Store) Close() error {
	return s.cache.Close()
}

package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several stores can
// share one backend without colliding.
//
//	shared := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DocumentKey(prog string, data []byte) string {
	return k.prefix + k.inner.DocumentKey(prog, data)
}

func (k *ScopedKeyer) LatestKey(prog string) string {
	return k.prefix + k.inner.LatestKey(prog)
}

package storage

// Prefixed namespaces every key of an underlying store, so several sessions
// can share one directory.
type Prefixed struct {
	base   Store
	prefix string
}

func WithPrefix(base Store, prefix string) *Prefixed {
	return &Prefixed{base: base, prefix: prefix}
}

func (p *Prefixed) Get(key string) (string, bool, error) {
	return p.base.Get(p.prefix + key)
}

func (p *Prefixed) Set(key, value string) error {
	return p.base.Set(p.prefix+key, value)
}

func (p *Prefixed) Remove(key string) error {
	return p.base.Remove(p.prefix + key)
}

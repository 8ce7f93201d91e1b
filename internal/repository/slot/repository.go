package slot

import (
	"context"
	"strings"
)

// Repository is a durable key-value slot. Get reports found=false for a
// missing key rather than an error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type prefixed struct {
	inner  Repository
	prefix string
}

// Prefixed namespaces every key as "prefix:key".
func Prefixed(inner Repository, prefix string) Repository {
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) key(k string) string {
	var b strings.Builder
	b.Grow(len(p.prefix) + 1 + len(k))
	b.WriteString(p.prefix)
	b.WriteString(":")
	b.WriteString(k)
	return b.String()
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.key(key), value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.key(key))
}

// Ping passes through to the wrapped backend when it can report health.
func (p *prefixed) Ping(ctx context.Context) error {
	if pinger, ok := p.inner.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

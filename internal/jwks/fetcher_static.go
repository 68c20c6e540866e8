package jwks

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// StaticFetcher devuelve un set fijo. Sirve para tests (sin red) y para
// desarrollo offline con un JWKS en disco.
type StaticFetcher struct {
	mu    sync.Mutex
	keys  map[string]SigningKey
	err   error
	calls int
}

// NewStaticFetcher crea un fetcher con las claves dadas.
func NewStaticFetcher(keys ...SigningKey) *StaticFetcher {
	f := &StaticFetcher{}
	f.Set(keys...)
	return f
}

// LoadStaticFetcher lee un documento JWKS de disco.
func LoadStaticFetcher(path string) (*StaticFetcher, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFetch, path, err)
	}
	keys, err := ParseDocument(b)
	if err != nil {
		return nil, err
	}
	f := &StaticFetcher{keys: keys}
	return f, nil
}

// Set reemplaza las claves (simula una rotación del IdP) y limpia el error.
func (f *StaticFetcher) Set(keys ...SigningKey) {
	m := make(map[string]SigningKey, len(keys))
	for _, k := range keys {
		m[k.KeyID] = k
	}
	f.mu.Lock()
	f.keys = m
	f.err = nil
	f.mu.Unlock()
}

// Fail hace que los próximos Fetch fallen con err.
func (f *StaticFetcher) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Calls cuenta los Fetch realizados.
func (f *StaticFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *StaticFetcher) Fetch(ctx context.Context) (*KeySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	keys := make(map[string]SigningKey, len(f.keys))
	for kid, k := range f.keys {
		keys[kid] = k
	}
	return &KeySet{Keys: keys}, nil
}

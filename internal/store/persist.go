package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// envelope is the on-disk shape of a persisted value.
type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// Persister reads and writes one typed value under a fixed key.
//
// Rehydrate runs after every Load, including when nothing was stored, so it
// can rebuild structures JSON cannot represent directly.
type Persister[T any] struct {
	Storage   Storage
	Key       string
	Version   int
	Rehydrate func(state *T, storedVersion int)
}

// Load returns the stored value, or the zero value when nothing is stored.
func (p *Persister[T]) Load(ctx context.Context) (T, error) {
	var env envelope[T]
	env.Version = p.Version

	data, ok, err := p.Storage.GetItem(ctx, p.Key)
	if err != nil {
		var zero T
		p.rehydrate(&zero, p.Version)
		return zero, fmt.Errorf("load %s: %w", p.Key, err)
	}
	if ok {
		if err := json.Unmarshal(data, &env); err != nil {
			var zero T
			p.rehydrate(&zero, p.Version)
			return zero, fmt.Errorf("decode %s: %w", p.Key, err)
		}
	}

	p.rehydrate(&env.State, env.Version)
	return env.State, nil
}

// Encode serializes state in the persisted envelope.
func (p *Persister[T]) Encode(state T) ([]byte, error) {
	data, err := json.Marshal(envelope[T]{State: state, Version: p.Version})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Key, err)
	}
	return data, nil
}

// Save writes state under the persister's key.
func (p *Persister[T]) Save(ctx context.Context, state T) error {
	data, err := p.Encode(state)
	if err != nil {
		return err
	}
	return p.Write(ctx, data)
}

// Write stores an already encoded envelope.
func (p *Persister[T]) Write(ctx context.Context, data []byte) error {
	if err := p.Storage.SetItem(ctx, p.Key, data); err != nil {
		return fmt.Errorf("save %s: %w", p.Key, err)
	}
	return nil
}

// Clear removes the stored value.
func (p *Persister[T]) Clear(ctx context.Context) error {
	return p.Storage.RemoveItem(ctx, p.Key)
}

func (p *Persister[T]) rehydrate(state *T, version int) {
	if p.Rehydrate != nil {
		p.Rehydrate(state, version)
	}
}

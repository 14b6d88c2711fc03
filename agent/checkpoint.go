package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"blocks/network"

	"gonum.org/v1/gonum/mat"
)

// BlobStore persists opaque checkpoints under string keys.
type BlobStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// checkpoint is the single blob a learner saves: weights plus the scalar training state.
type checkpoint struct {
	Kind      string                `json:"-"`
	Online    map[string]*mat.Dense `json:"-"`
	Target    map[string]*mat.Dense `json:"-"`
	Epsilon   float64               `json:"epsilon"`
	Steps     int                   `json:"steps"`
	Episodes  int                   `json:"episodes"`
	BestScore int                   `json:"bestScore"`
	Baseline  float64               `json:"baseline"`
}

type envelope struct {
	checkpoint
	KindName string            `json:"kind"`
	Online   map[string][]byte `json:"online"`
	Target   map[string][]byte `json:"target,omitempty"`
}

func encodeCheckpoint(c checkpoint) ([]byte, error) {
	online, err := network.MarshalWeights(c.Online)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	var target map[string][]byte
	if c.Target != nil {
		if target, err = network.MarshalWeights(c.Target); err != nil {
			return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
		}
	}
	return json.Marshal(envelope{checkpoint: c, KindName: c.Kind, Online: online, Target: target})
}

func decodeCheckpoint(data []byte, want Kind) (checkpoint, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return checkpoint{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if e.KindName != want.String() {
		return checkpoint{}, fmt.Errorf("checkpoint holds a %q agent, want %q: %w", e.KindName, want, ErrUnknownKind)
	}
	c := e.checkpoint
	c.Kind = e.KindName
	var err error
	if c.Online, err = network.UnmarshalWeights(e.Online); err != nil {
		return checkpoint{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if e.Target != nil {
		if c.Target, err = network.UnmarshalWeights(e.Target); err != nil {
			return checkpoint{}, fmt.Errorf("failed to decode checkpoint: %w", err)
		}
	}
	return c, nil
}

// Save writes the learner's checkpoint under key.
func Save(ctx context.Context, store BlobStore, key string, l Learner) error {
	blob, err := l.MarshalBinary()
	if err != nil {
		return err
	}
	if err := store.Save(ctx, key, blob); err != nil {
		return fmt.Errorf("failed to save checkpoint %q: %w", key, err)
	}
	return nil
}

// Load restores the learner from the checkpoint under key.
func Load(ctx context.Context, store BlobStore, key string, l Learner) error {
	blob, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint %q: %w", key, err)
	}
	return l.UnmarshalBinary(blob)
}

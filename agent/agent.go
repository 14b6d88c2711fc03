package agent

import (
	"encoding"
	"errors"
	"fmt"
	"strings"

	"blocks/game"
	"blocks/replay"
)

var ErrUnknownKind = errors.New("unknown agent kind")

// Kind tags the agent variants so callers can dispatch without inspecting concrete types.
type Kind int

const (
	ValueKind Kind = iota
	TreeKind
	PolicyKind
	HeuristicKind
)

var kindNames = map[Kind]string{
	ValueKind:     "value",
	TreeKind:      "tree",
	PolicyKind:    "policy",
	HeuristicKind: "heuristic",
}

var kindAliases = map[string]Kind{
	"dqn":  ValueKind,
	"mcts": TreeKind,
	"pg":   PolicyKind,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Learns reports whether agents of this kind implement Learner.
func (k Kind) Learns() bool {
	return k == ValueKind || k == PolicyKind
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	if kind, ok := kindAliases[s]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

type Mode int

const (
	Training Mode = iota
	Playing       // No exploration, greedy choices
)

// Agent picks placements. Implementations are not safe for concurrent use.
type Agent interface {
	Kind() Kind
	// SelectAction returns one of valid, or game.NoAction when valid is empty.
	SelectAction(env *game.Environment, valid []game.Action) game.Action
	StartEpisode()
	// EndEpisode records the game score and the summed shaped reward separately.
	EndEpisode(score int, reward float64)
	Stats() Stats
	SetMode(mode Mode)
	// Close releases replay memory and episode buffers.
	Close() error
}

type TrainResult struct {
	Trained bool // False when the call was a no-op
	Loss    float64
	Steps   int
}

// Learner is an Agent that learns from its own transitions and checkpoints to an opaque blob.
type Learner interface {
	Agent
	Remember(t replay.Transition)
	// Train takes at most one optimizer step. Errors leave the model and memory unchanged.
	Train() (TrainResult, error)
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

func New(kind Kind, cfg Config) (Agent, error) {
	switch kind {
	case ValueKind:
		return NewValueAgent(cfg), nil
	case TreeKind:
		return NewTreeAgent(cfg), nil
	case PolicyKind:
		return NewPolicyAgent(cfg), nil
	case HeuristicKind:
		return NewHeuristicAgent(cfg), nil
	default:
		return nil, fmt.Errorf("%v: %w", kind, ErrUnknownKind)
	}
}

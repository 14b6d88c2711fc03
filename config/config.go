package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"blocks/agent"
	"blocks/game"
	"blocks/store"

	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid configuration")

type HyperParameter struct {
	Key string  `mapstructure:"key" yaml:"key"`
	Val float64 `mapstructure:"val" yaml:"val"`
}

type EnvironmentConfig struct {
	Level      int                   `mapstructure:"level" yaml:"level"`
	Reward     game.RewardConfig     `mapstructure:"reward" yaml:"reward"`
	Curriculum game.CurriculumConfig `mapstructure:"curriculum" yaml:"curriculum"`
}

type AgentConfig struct {
	Kind   string `mapstructure:"kind" yaml:"kind"`
	Hidden []int  `mapstructure:"hidden" yaml:"hidden"`
	// HyperParams is a key-val list of agent.Config field names, camel-cased, and their values.
	HyperParams []HyperParameter `mapstructure:"hyperParams" yaml:"hyperParams"`
}

type SearchConfig struct {
	Simulations int     `mapstructure:"simulations" yaml:"simulations"`
	Cutoff      int     `mapstructure:"cutoff" yaml:"cutoff"`
	Goroutines  int     `mapstructure:"goroutines" yaml:"goroutines"`
	Exploration float64 `mapstructure:"exploration" yaml:"exploration"`
	Rollout     string  `mapstructure:"rollout" yaml:"rollout"` // random or heuristic
}

type TrainingConfig struct {
	Episodes        int `mapstructure:"episodes" yaml:"episodes"`
	MaxSteps        int `mapstructure:"maxSteps" yaml:"maxSteps"`
	TrainEvery      int `mapstructure:"trainEvery" yaml:"trainEvery"`
	CheckpointEvery int `mapstructure:"checkpointEvery" yaml:"checkpointEvery"`
	// TrainingDeadline is a fixed duration after which the CLI stops between episodes.
	TrainingDeadline map[string]string `mapstructure:"trainingDeadline" yaml:"trainingDeadline"`
}

type CompareConfig struct {
	Agents   []string `mapstructure:"agents" yaml:"agents"`
	Episodes int      `mapstructure:"episodes" yaml:"episodes"`
	Learn    bool     `mapstructure:"learn" yaml:"learn"`
	Output   string   `mapstructure:"output" yaml:"output"`
}

type Config struct {
	Seed        uint64            `mapstructure:"seed" yaml:"seed"`
	Environment EnvironmentConfig `mapstructure:"environment" yaml:"environment"`
	Agent       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	Search      SearchConfig      `mapstructure:"search" yaml:"search"`
	Training    TrainingConfig    `mapstructure:"training" yaml:"training"`
	Store       store.Config      `mapstructure:"store" yaml:"store"`
	Compare     CompareConfig     `mapstructure:"compare" yaml:"compare"`
}

func Default() *Config {
	defaults := agent.DefaultConfig()
	return &Config{
		Seed: 1,
		Environment: EnvironmentConfig{
			Reward:     game.DefaultRewardConfig(),
			Curriculum: game.DefaultCurriculumConfig(),
		},
		Agent: AgentConfig{
			Kind:   agent.ValueKind.String(),
			Hidden: defaults.Hidden,
		},
		Search: SearchConfig{
			Simulations: defaults.Simulations,
			Cutoff:      defaults.Cutoff,
			Goroutines:  defaults.Goroutines,
			Exploration: defaults.Exploration,
			Rollout:     "random",
		},
		Training: TrainingConfig{
			Episodes:        500,
			MaxSteps:        1000,
			TrainEvery:      1,
			CheckpointEvery: 50,
		},
		Store: store.Config{
			Kind: "file",
			Dir:  "checkpoints",
			Key:  "blocks",
		},
		Compare: CompareConfig{
			Agents:   []string{"heuristic", "tree", "value", "policy"},
			Episodes: 20,
			Output:   "experiments",
		},
	}
}

// FromYaml overlays the file at path onto the defaults.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))

	cfg := Default()
	vp.SetDefault("seed", cfg.Seed)
	vp.SetDefault("agent.kind", cfg.Agent.Kind)
	vp.SetDefault("training.episodes", cfg.Training.Episodes)
	vp.SetDefault("training.maxSteps", cfg.Training.MaxSteps)
	vp.SetDefault("search.rollout", cfg.Search.Rollout)

	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	// Lists replace their defaults rather than merging element-wise
	if vp.IsSet("agent.hidden") {
		cfg.Agent.Hidden = nil
	}
	if vp.IsSet("compare.agents") {
		cfg.Compare.Agents = nil
	}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := agent.ParseKind(cfg.Agent.Kind); err != nil {
		return fmt.Errorf("agent.kind: %v: %w", err, ErrInvalid)
	}
	for _, kind := range cfg.Compare.Agents {
		if _, err := agent.ParseKind(kind); err != nil {
			return fmt.Errorf("compare.agents: %v: %w", err, ErrInvalid)
		}
	}
	for _, size := range cfg.Agent.Hidden {
		if size <= 0 {
			return fmt.Errorf("agent.hidden has size %d: %w", size, ErrInvalid)
		}
	}
	if cfg.Training.Episodes < 0 || cfg.Training.MaxSteps <= 0 {
		return fmt.Errorf("training needs episodes >= 0 and maxSteps > 0: %w", ErrInvalid)
	}
	if cfg.Search.Rollout != "random" && cfg.Search.Rollout != "heuristic" {
		return fmt.Errorf("search.rollout %q: %w", cfg.Search.Rollout, ErrInvalid)
	}
	if _, ok := cfg.Training.TrainingDeadline["duration"]; ok {
		if _, err := time.ParseDuration(cfg.Training.TrainingDeadline["duration"]); err != nil {
			return fmt.Errorf("training.trainingDeadline: %v: %w", err, ErrInvalid)
		}
	}
	return nil
}

func (cfg *AgentConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

func (cfg *AgentConfig) intParam(param string, defaultVal int) int {
	return int(cfg.GetHyperParamOrDefault(param, float64(defaultVal)))
}

// AgentConfig resolves the agent hyperparameters: defaults, then the search section, then hyperParams.
func (cfg *Config) AgentConfig() agent.Config {
	out := agent.DefaultConfig()
	out.Seed = cfg.Seed
	if len(cfg.Agent.Hidden) > 0 {
		out.Hidden = append([]int(nil), cfg.Agent.Hidden...)
	}
	out.Simulations = cfg.Search.Simulations
	out.Cutoff = cfg.Search.Cutoff
	out.Goroutines = cfg.Search.Goroutines
	out.Exploration = cfg.Search.Exploration
	out.RolloutHeuristic = cfg.Search.Rollout == "heuristic"

	a := &cfg.Agent
	out.LearningRate = a.GetHyperParamOrDefault("learningRate", out.LearningRate)
	out.GradientClip = a.GetHyperParamOrDefault("gradientClip", out.GradientClip)
	out.Gamma = a.GetHyperParamOrDefault("gamma", out.Gamma)
	out.RewardScale = a.GetHyperParamOrDefault("rewardScale", out.RewardScale)
	out.BatchSize = a.intParam("batchSize", out.BatchSize)
	out.BufferCapacity = a.intParam("bufferCapacity", out.BufferCapacity)
	out.EpsilonStart = a.GetHyperParamOrDefault("epsilonStart", out.EpsilonStart)
	out.EpsilonMin = a.GetHyperParamOrDefault("epsilonMin", out.EpsilonMin)
	out.EpsilonDecay = a.GetHyperParamOrDefault("epsilonDecay", out.EpsilonDecay)
	out.LookaheadProb = a.GetHyperParamOrDefault("lookaheadProb", out.LookaheadProb)
	out.TopK = a.intParam("topK", out.TopK)
	out.TargetSyncEvery = a.intParam("targetSyncEvery", out.TargetSyncEvery)
	out.Tau = a.GetHyperParamOrDefault("tau", out.Tau)
	out.Alpha = a.GetHyperParamOrDefault("alpha", out.Alpha)
	out.BetaStart = a.GetHyperParamOrDefault("betaStart", out.BetaStart)
	out.BetaSteps = a.intParam("betaSteps", out.BetaSteps)
	out.PriorityEpsilon = a.GetHyperParamOrDefault("priorityEpsilon", out.PriorityEpsilon)
	out.EntropyBonus = a.GetHyperParamOrDefault("entropyBonus", out.EntropyBonus)
	out.BaselineDecay = a.GetHyperParamOrDefault("baselineDecay", out.BaselineDecay)
	out.RolloutNoise = a.GetHyperParamOrDefault("rolloutNoise", out.RolloutNoise)
	out.Temperature = a.GetHyperParamOrDefault("temperature", out.Temperature)
	out.HeuristicDepth = a.intParam("heuristicDepth", out.HeuristicDepth)
	out.StatsWindow = a.intParam("statsWindow", out.StatsWindow)
	return out
}

// EnvOptions builds a fresh environment's options. offset separates the seeds of parallel runs.
func (cfg *Config) EnvOptions(offset uint64) []game.EnvOption {
	return []game.EnvOption{
		game.WithSeed(cfg.Seed + offset),
		game.WithRewardConfig(cfg.Environment.Reward),
		game.WithCurriculum(cfg.Environment.Curriculum),
		game.WithLevel(cfg.Environment.Level),
	}
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *Config) WithTrainingDeadline(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.Training.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("training deadline %q: %w", val, err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

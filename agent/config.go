package agent

// Config carries the hyperparameters of every agent kind. Each agent reads only its own fields.
type Config struct {
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	// Approximator
	Hidden       []int   `mapstructure:"hidden" yaml:"hidden"`
	LearningRate float64 `mapstructure:"learningRate" yaml:"learningRate"`
	GradientClip float64 `mapstructure:"gradientClip" yaml:"gradientClip"`
	Gamma        float64 `mapstructure:"gamma" yaml:"gamma"`
	RewardScale  float64 `mapstructure:"rewardScale" yaml:"rewardScale"` // Applied to shaped rewards before learning

	// Value agent
	BatchSize       int     `mapstructure:"batchSize" yaml:"batchSize"`
	BufferCapacity  int     `mapstructure:"bufferCapacity" yaml:"bufferCapacity"`
	EpsilonStart    float64 `mapstructure:"epsilonStart" yaml:"epsilonStart"`
	EpsilonMin      float64 `mapstructure:"epsilonMin" yaml:"epsilonMin"`
	EpsilonDecay    float64 `mapstructure:"epsilonDecay" yaml:"epsilonDecay"`
	LookaheadProb   float64 `mapstructure:"lookaheadProb" yaml:"lookaheadProb"` // Share of exploration steps using the heuristic
	TopK            int     `mapstructure:"topK" yaml:"topK"`
	TargetSyncEvery int     `mapstructure:"targetSyncEvery" yaml:"targetSyncEvery"`
	Tau             float64 `mapstructure:"tau" yaml:"tau"` // Zero syncs the target by hard copy
	Alpha           float64 `mapstructure:"alpha" yaml:"alpha"`
	BetaStart       float64 `mapstructure:"betaStart" yaml:"betaStart"`
	BetaSteps       int     `mapstructure:"betaSteps" yaml:"betaSteps"`
	PriorityEpsilon float64 `mapstructure:"priorityEpsilon" yaml:"priorityEpsilon"`

	// Policy-gradient agent
	EntropyBonus  float64 `mapstructure:"entropyBonus" yaml:"entropyBonus"`
	BaselineDecay float64 `mapstructure:"baselineDecay" yaml:"baselineDecay"`

	// Tree agent
	Simulations      int     `mapstructure:"simulations" yaml:"simulations"`
	Cutoff           int     `mapstructure:"cutoff" yaml:"cutoff"`
	Goroutines       int     `mapstructure:"goroutines" yaml:"goroutines"`
	Exploration      float64 `mapstructure:"exploration" yaml:"exploration"`
	RolloutHeuristic bool    `mapstructure:"rolloutHeuristic" yaml:"rolloutHeuristic"`
	RolloutNoise     float64 `mapstructure:"rolloutNoise" yaml:"rolloutNoise"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"` // Visit-count sampling temperature while training, 0 takes the most visited move

	// Heuristic scoring, shared by the heuristic agent, value exploration and heuristic rollouts
	HeuristicDepth int `mapstructure:"heuristicDepth" yaml:"heuristicDepth"`

	StatsWindow int `mapstructure:"statsWindow" yaml:"statsWindow"`
}

func DefaultConfig() Config {
	return Config{
		Seed:         1,
		Hidden:       []int{128, 64},
		LearningRate: 1e-3,
		GradientClip: 10,
		Gamma:        0.95,
		RewardScale:  1e-3,

		BatchSize:       32,
		BufferCapacity:  10000,
		EpsilonStart:    1,
		EpsilonMin:      0.05,
		EpsilonDecay:    0.995,
		LookaheadProb:   0.7,
		TopK:            5,
		TargetSyncEvery: 100,
		Alpha:           0.6,
		BetaStart:       0.4,
		BetaSteps:       10000,
		PriorityEpsilon: 1e-3,

		EntropyBonus:  0.01,
		BaselineDecay: 0.9,

		Simulations: 200,
		Cutoff:      20,
		Goroutines:  1,
		Exploration: 2,

		HeuristicDepth: 1,
		StatsWindow:    100,
	}
}

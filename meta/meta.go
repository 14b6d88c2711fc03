package meta

// CONFIG_PATH is the configuration file read when --config is not given.
const CONFIG_PATH = "blocks.yaml"

// SERVE_ADDR is the listen address of the move endpoint.
const SERVE_ADDR = ":8080"

// LOG_LEVEL is the default zerolog level name.
const LOG_LEVEL = "info"

// SWEEP_GOROUTINES are the tree search parallelism levels measured by the sweep command.
var SWEEP_GOROUTINES = []int{1, 2, 4, 8, 16}

// SWEEP_MOVES is the number of placements searched per sweep entry.
const SWEEP_MOVES = 30

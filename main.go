package main

import (
	"os"

	"blocks/cmd"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("blocks failed")
		os.Exit(1)
	}
}

package main

import (
	"os"
	"resort/config"
	"resort/helper"
	"resort/shared/logger"
	"strconv"

	"github.com/rs/zerolog/log"
)

const usage = "usage: migrate up|down|drop|step-up|version|force <version>"

func main() {
	logger.InitLogger()

	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}

	cfg := config.Get()
	logger.SetLogLevel(cfg)

	var err error

	switch os.Args[1] {
	case "up":
		err = helper.Up(cfg)
	case "down":
		err = helper.Down(cfg)
	case "drop":
		err = helper.Drop(cfg)
	case "step-up":
		err = helper.StepUp(cfg)
	case "version":
		err = helper.Version(cfg)
	case "force":
		if len(os.Args) < 3 {
			log.Fatal().Msg(usage)
		}

		version, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("force needs a numeric version")
		}

		err = helper.Force(cfg, version)
	default:
		log.Fatal().Msg(usage)
	}

	if err != nil {
		log.Fatal().Err(err).Str("action", os.Args[1]).Msg("migration failed")
	}
}

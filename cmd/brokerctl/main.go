package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/viant/brokerage/cli"
	"github.com/viant/brokerage/internal/logging"
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	logger := logging.New(os.Getenv("BROKERAGE_LOG_LEVEL"), false)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}
	os.Exit(run(os.Args[1:], logger))
}

// run executes brokerctl and returns the process exit code
func run(args []string, logger zerolog.Logger) int {
	err := cli.Run(args)
	if err == nil {
		return 0
	}
	if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
		fmt.Println(flagsErr.Message)
		return 0
	}
	logger.Error().Err(err).Msg("brokerctl failed")
	return 1
}

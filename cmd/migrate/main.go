package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"equity/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, "migrate")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&upCmd{}, "schema")
	commander.Register(&downCmd{}, "schema")
	commander.Register(&versionCmd{}, "schema")
	commander.Register(&purgeCmd{}, "maintenance")
	flag.Parse()

	status := commander.Execute(context.Background())
	logger.Sync()
	os.Exit(int(status))
}

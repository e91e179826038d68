package main

import (
	"os"

	"github.com/monetci/monetup/internal/adapters/driving/cli"
	"github.com/monetci/monetup/internal/logger"
)

func main() {
	if err := cli.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/lodestone-mods/lodestone/internal/app"
	"github.com/lodestone-mods/lodestone/internal/logging"
)

const (
	Version = "1.2.0"
	Date    = "2026-08-31"
)

func main() {
	logging.Init()
	logger := logging.GetLogger()
	logger.Info("Starting Lodestone - Linux Modding Helper")

	application := app.NewApp(Version, Date)

	if err := application.Run(); err != nil {
		logger.Error("Application error: " + err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Close()
}

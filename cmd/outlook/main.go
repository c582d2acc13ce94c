package main

import (
	"log"
	"os"

	"github.com/gwenonit/outlook-cli/internal/adapters/driven/config"
	"github.com/gwenonit/outlook-cli/internal/adapters/driven/credentials"
	"github.com/gwenonit/outlook-cli/internal/adapters/driving/cli"
	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
	"github.com/gwenonit/outlook-cli/internal/core/services"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	// Credentials and config share ~/.outlook-cli
	credentialsStore, err := credentials.NewFileStore("")
	if err != nil {
		log.Printf("failed to create credentials store: %v", err)
		return 1
	}

	configStore, err := config.NewFileStore("")
	if err != nil {
		log.Printf("failed to create config store: %v", err)
		return 1
	}

	identity := microsoft.NewIdentityClient()

	tokenManager := services.NewTokenManager(credentialsStore, identity)
	tokenManager.SetNotify(cli.DeviceCodePrompt(os.Stderr))

	cli.SetServices(&cli.Services{
		Auth:   tokenManager,
		Config: configStore,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

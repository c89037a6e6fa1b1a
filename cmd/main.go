package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Conversly/lightning-whatsapp/internal/config"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: Error loading .env file", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lightning-whatsapp",
		Short:         "WhatsApp chatbot webhook backed by Twilio, Gemini and PostgreSQL",
		SilenceUsage:  true,
	}

	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd(), newSendTestCmd())
	// Running the binary without a subcommand starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

// loadConfig reads configuration and installs the global logger. The returned
// func flushes the logger.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	cleanup := utils.InitLogger(cfg)
	return cfg, cleanup, nil
}

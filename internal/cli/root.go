package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	statePath  string
)

// Execute runs the CLI.
func Execute() error {
	// Local development keeps the API keys in a .env file; absence is fine.
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// Port and state default to empty so an explicit flag or env value wins
	// over the config file, and the config file wins over the baked-in
	// defaults resolved at startup.
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envState := os.Getenv("STATE_PATH")

	cmd := &cobra.Command{
		Use:   "otaku-arena-service",
		Short: "Anime trivia and card collection game server",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&statePath, "state", envState, "path to the user state snapshot")
	cmd.AddCommand(NewStartCmd(&configPath, &port, &statePath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}

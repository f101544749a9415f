package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile    string
	eventsPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envEvents := os.Getenv("EVENTS_PATH")

	cmd := &cobra.Command{
		Use:          "quizbot",
		Short:        "Telegram quiz bot backed by a trivia question service",
		SilenceUsage: true,
		// Running the binary without a subcommand starts the bot.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), envFile, eventsPath)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file")
	cmd.PersistentFlags().StringVar(&eventsPath, "events", envEvents, "path to an events YAML file (built-in catalogue when empty)")
	cmd.AddCommand(NewStartCmd(&envFile, &eventsPath))
	cmd.AddCommand(NewEventsCmd(&eventsPath))
	return cmd
}

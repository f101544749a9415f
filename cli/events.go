package cli

import (
	"fmt"
	"strings"

	"github.com/korjavin/quizbot/api"
	"github.com/spf13/cobra"
)

// NewEventsCmd builds the subcommand that prints the event catalogue.
func NewEventsCmd(eventsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the event commands the bot registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(*eventsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, def := range catalog.Definitions() {
				fmt.Fprintf(out, "/%s\t%s", def.Command, def.Name)
				if len(def.Divisions) > 0 {
					fmt.Fprintf(out, "\tdivisions: %s", strings.Join(def.Divisions, ", "))
				}
				if divs, ok := api.IdentificationDivisions(def.Name); ok {
					fmt.Fprintf(out, "\tid: %s", strings.Join(divs, ", "))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

package commands

import (
	"fmt"

	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the API description file",
		Long:  "Load the API description file and build a client from it without calling anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadDescription()
			if err != nil {
				return err
			}

			client, err := tailor.New(config)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "API description is valid: %d resources, %d routes, host %s\n",
				len(client.Resources()), len(client.Routes()), client.Host())

			return err
		},
	}
}

package commands

import (
	"strconv"

	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewRoutesCommand creates the routes command
func NewRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "routes",
		Aliases: []string{"ls"},
		Short:   "List the routes of the API description",
		Long:    "List every resource and action declared in the API description file",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadDescription()
			if err != nil {
				return err
			}

			client, err := tailor.New(config)
			if err != nil {
				return err
			}

			return writeRoutes(cmd, client)
		},
	}
}

func writeRoutes(cmd *cobra.Command, client *tailor.Client) error {
	routes := client.Routes()

	return writeStructured(cmd.OutOrStdout(), routes, func(table *tablewriter.Table) error {
		table.Header("Resource", "Action", "Method", "URI", "Data", "Stream")

		for _, route := range routes {
			action, err := client.Action(route.Resource, route.Action)
			if err != nil {
				return err
			}

			req := action.BuildRequest(nil, nil)

			_ = table.Append(
				route.Resource,
				route.Action,
				route.Route.Method,
				req.URI,
				string(route.Route.Encoding()),
				strconv.FormatBool(route.Route.Streaming),
			)
		}

		return nil
	})
}

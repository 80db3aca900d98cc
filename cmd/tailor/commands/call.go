package commands

import (
	"fmt"
	"io"

	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/spf13/cobra"
)

// NewCallCommand creates the call command
func NewCallCommand() *cobra.Command {
	var (
		params  []string
		headers []string
		data    string
	)

	cmd := &cobra.Command{
		Use:   "call <resource> <action>",
		Short: "Invoke a route",
		Long: `Invoke a route of the API description and print the response body.

Streaming routes are copied to stdout as the data arrives.`,
		Example: `  tailor -f api.yml call data get --param id=42
  tailor -f api.yml call data create --data '{"name":"nachos"}'
  tailor -f api.yml call data upload --param id=42 --data @form.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathParams, err := parseKeyValues(params)
			if err != nil {
				return err
			}

			headerValues, err := parseKeyValues(headers)
			if err != nil {
				return err
			}

			payload, err := readPayload(data, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(headerValues) > 0 {
				err = s.client.Inject(tailor.HeaderInterceptor(headerValues))
				if err != nil {
					return err
				}
			}

			result, err := s.client.Call(cmd.Context(), args[0], args[1], pathParams, payload)
			if err != nil {
				return fmt.Errorf("failed to call %s.%s: %w", args[0], args[1], err)
			}

			defer func() { _ = result.Close() }()

			return writeResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "path parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as key=value (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON payload, @file or @- for stdin")

	return cmd
}

func writeResult(w io.Writer, result *tailor.Result) error {
	if result.IsStream() {
		_, err := io.Copy(w, result.Stream)
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}

		return nil
	}

	return writeBody(w, result.Body)
}

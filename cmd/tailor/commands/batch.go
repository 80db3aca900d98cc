package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchSummary is the printable form of a tailor.BatchResult.
type batchSummary struct {
	ID         string        `json:"id"                    yaml:"id"`
	Success    bool          `json:"success"               yaml:"success"`
	StatusCode int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"              yaml:"duration"`
	Error      string        `json:"error,omitempty"       yaml:"error,omitempty"`
}

// NewBatchCommand creates the batch command
func NewBatchCommand() *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Invoke many routes concurrently",
		Long: `Invoke every operation listed in a YAML file and print a summary.

The file holds a list of operations:

  - id: first
    resource: data
    action: get
    params:
      id: "1"
  - id: second
    resource: data
    action: create
    payload:
      name: nachos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operations, err := loadOperations(args[0])
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			executor := tailor.NewBatchExecutor(s.client, concurrency)
			executor.SetTimeout(timeout)

			results, err := executor.Execute(cmd.Context(), operations)
			if err != nil {
				return err
			}

			for _, result := range results {
				if result.Result != nil {
					_ = result.Result.Close()
				}
			}

			return writeBatchResults(cmd, summarize(results))
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultConcurrencyLimit, "maximum concurrent requests")
	cmd.Flags().DurationVar(&timeout, "op-timeout", constants.DefaultBatchTimeout, "timeout per operation")

	return cmd
}

func loadOperations(path string) ([]tailor.BatchOperation, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var operations []tailor.BatchOperation

	err = yaml.Unmarshal(data, &operations)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	for i := range operations {
		if operations[i].ID == "" {
			operations[i].ID = strconv.Itoa(i + 1)
		}
	}

	return operations, nil
}

func summarize(results []tailor.BatchResult) []batchSummary {
	summaries := make([]batchSummary, 0, len(results))

	for _, result := range results {
		summary := batchSummary{
			ID:         result.ID,
			Success:    result.Success,
			Duration:   result.Duration,
			StatusCode: tailor.StatusCode(result.Error),
		}

		if result.Result != nil && result.Result.Response != nil {
			summary.StatusCode = result.Result.Response.StatusCode
		}

		if result.Error != nil {
			summary.Error = result.Error.Error()
		}

		summaries = append(summaries, summary)
	}

	return summaries
}

func writeBatchResults(cmd *cobra.Command, summaries []batchSummary) error {
	return writeStructured(cmd.OutOrStdout(), summaries, func(table *tablewriter.Table) error {
		table.Header("ID", "Success", "Status", "Duration", "Error")

		for _, summary := range summaries {
			status := ""
			if summary.StatusCode != 0 {
				status = strconv.Itoa(summary.StatusCode)
			}

			_ = table.Append(
				summary.ID,
				strconv.FormatBool(summary.Success),
				status,
				summary.Duration.Round(time.Millisecond).String(),
				summary.Error,
			)
		}

		return nil
	})
}

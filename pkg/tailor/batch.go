package tailor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyBatchOperation is returned for an operation missing its resource or action.
var ErrEmptyBatchOperation = errors.New("batch operation needs a resource and an action")

// BatchOperation represents a single route invocation in a batch.
type BatchOperation struct {
	ID       string      `json:"id"       yaml:"id"`
	Resource string      `json:"resource" yaml:"resource"`
	Action   string      `json:"action"   yaml:"action"`
	Params   Params      `json:"params"   yaml:"params"`
	Payload  interface{} `json:"payload"  yaml:"payload"`

	Callback func(result *BatchResult) `json:"-" yaml:"-"`
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Result   *Result
	Error    error
	Duration time.Duration
}

// BatchExecutor runs batches of invocations against one client with bounded
// concurrency.
type BatchExecutor struct {
	client      *Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client *Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultBatchTimeout,
	}
}

// SetTimeout sets the timeout applied to each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs every operation and returns their results in input order.
// Individual failures are reported in the results; the returned error is only
// set when ctx ended during the batch.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)

	for index, operation := range operations {
		if err := groupCtx.Err(); err != nil {
			results[index] = BatchResult{ID: operation.ID, Error: err}

			continue
		}

		group.Go(func() error {
			result := b.executeOperation(groupCtx, operation)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}

	return results, nil
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Resource == "" || operation.Action == "" {
		result.Error = fmt.Errorf("%w: %q", ErrEmptyBatchOperation, operation.ID)

		return result
	}

	opCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	res, err := b.client.Call(opCtx, operation.Resource, operation.Action, operation.Params, operation.Payload)
	result.Duration = time.Since(start)

	result.Result = res
	result.Error = err
	result.Success = err == nil

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// Add appends an invocation of resource.action.
func (b *BatchBuilder) Add(id, resource, action string, params Params, payload interface{}) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Resource: resource,
		Action:   action,
		Params:   params,
		Payload:  payload,
	})

	return b
}

// WithCallback sets the callback of the most recently added operation.
func (b *BatchBuilder) WithCallback(callback func(result *BatchResult)) *BatchBuilder {
	if len(b.operations) > 0 {
		b.operations[len(b.operations)-1].Callback = callback
	}

	return b
}

// Build returns the operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}

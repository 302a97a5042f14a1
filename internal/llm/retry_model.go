package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RetryModel wraps a chat model with exponential backoff on transient
// failures. Context cancellation stops the retry loop immediately.
type RetryModel struct {
	inner      model.ToolCallingChatModel
	maxRetries int
	baseDelay  time.Duration
}

// NewRetryModel wraps inner with up to maxRetries attempts per call.
func NewRetryModel(inner model.ToolCallingChatModel, maxRetries int, baseDelay time.Duration) *RetryModel {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryModel{inner: inner, maxRetries: maxRetries, baseDelay: baseDelay}
}

// Generate calls the wrapped model, retrying failed attempts with doubling
// delays.
func (r *RetryModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var out *schema.Message
	err := r.retry(ctx, func() error {
		var callErr error
		out, callErr = r.inner.Generate(ctx, input, opts...)
		return callErr
	})
	return out, err
}

// Stream calls the wrapped model's streaming entry point with the same retry
// policy as Generate.
func (r *RetryModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var out *schema.StreamReader[*schema.Message]
	err := r.retry(ctx, func() error {
		var callErr error
		out, callErr = r.inner.Stream(ctx, input, opts...)
		return callErr
	})
	return out, err
}

// WithTools returns a retrying model bound to the given tools.
func (r *RetryModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound, err := r.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RetryModel{inner: bound, maxRetries: r.maxRetries, baseDelay: r.baseDelay}, nil
}

func (r *RetryModel) retry(ctx context.Context, fn func() error) error {
	delay := r.baseDelay
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

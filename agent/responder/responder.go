// Package responder implements the two capability responders behind the
// uniform Invoke contract. Each invocation is bounded by its own timeout
// and never touches shared session state; responder failures surface as
// ErrResponderTimeout / ErrResponderUnavailable for the pipeline to
// absorb.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

const (
	defaultInvokeTimeout = 25 * time.Second
	defaultTopK          = 2
	defaultTxLimit       = 10
)

type options struct {
	timeout time.Duration
	topK    int
	txLimit int
}

// Option customizes a responder.
type Option func(*options)

// WithTimeout bounds a single Invoke call.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTopK sets how many knowledge snippets are retrieved per query.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithTransactionLimit caps the recent-transaction snapshot size.
func WithTransactionLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.txLimit = limit
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		timeout: defaultInvokeTimeout,
		topK:    defaultTopK,
		txLimit: defaultTxLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// wrapInvokeErr maps a backend failure onto the responder error taxonomy.
func wrapInvokeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", contractx.ErrResponderTimeout, err)
	}
	return fmt.Errorf("%w: %v", contractx.ErrResponderUnavailable, err)
}

// FailureResult converts an Invoke error into the immutable failed-result
// value the synthesizer can safely ignore.
func FailureResult(role contractx.ResponderRole, err error) contractx.ResponderResult {
	status := contractx.ResultUnavailable
	if errors.Is(err, contractx.ErrResponderTimeout) {
		status = contractx.ResultTimeout
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return contractx.ResponderResult{
		Role:   role,
		Status: status,
		Detail: detail,
	}
}

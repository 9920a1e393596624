// Package notify formats birthday messages and fans them out across
// delivery channels with per-recipient result aggregation.
package notify

import "context"

// ErrorKind classifies a failed send.
type ErrorKind string

const (
	ErrKindNone        ErrorKind = ""
	ErrKindUnavailable ErrorKind = "unavailable"
	ErrKindSendFailed  ErrorKind = "send_failed"
)

// SendResult is the outcome of one (channel, recipient) send.
type SendResult struct {
	Success   bool
	Recipient string
	MessageID string
	Kind      ErrorKind
	Err       error
}

// Metadata describes a channel to the orchestrator and to logs.
type Metadata struct {
	Name         string
	Capabilities []string
}

// Channel is the minimal capability a delivery mechanism must provide.
// Implementations are adapters over one concrete transport each; there is
// no inheritance hierarchy, only this interface.
type Channel interface {
	// Send delivers message to a single recipient. Recipient may be empty
	// for broadcast-style channels.
	Send(ctx context.Context, message, recipient string) SendResult

	// Available reports whether the channel is configured well enough to
	// attempt a send. The orchestrator skips unavailable channels instead
	// of failing every call.
	Available() bool

	// Metadata identifies the channel.
	Metadata() Metadata
}

// BatchSender is an optional upgrade for channels with a true batch API.
// Implementations must preserve recipient-indexed result ordering and must
// not short-circuit on the first failure.
type BatchSender interface {
	SendBatch(ctx context.Context, message string, recipients []string) []SendResult
}

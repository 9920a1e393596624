package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// Dispatcher fans a message out across channels and recipients.
type Dispatcher struct {
	// Limit caps concurrent sends per SendToMultiple call, respecting
	// external rate limits. Zero means the default.
	Limit int
}

// NewDispatcher creates a Dispatcher with the given concurrency cap.
func NewDispatcher(limit int) *Dispatcher {
	if limit <= 0 {
		limit = config.DefaultSendLimit
	}
	return &Dispatcher{Limit: limit}
}

// Send delivers the message once on the channel, with no recipient.
func (d *Dispatcher) Send(ctx context.Context, message string, ch Channel) SendResult {
	if !ch.Available() {
		return unavailableResult("")
	}
	return ch.Send(ctx, message, "")
}

// SendToMultiple issues one send per recipient and collects results without
// short-circuiting: a failure for recipient N never prevents attempting
// recipient N+1. Sends may run concurrently up to the dispatcher's limit;
// the result slice is recipient-indexed regardless of completion order.
func (d *Dispatcher) SendToMultiple(ctx context.Context, message string, ch Channel, recipients []string) []SendResult {
	if !ch.Available() {
		results := make([]SendResult, len(recipients))
		for i, r := range recipients {
			results[i] = unavailableResult(r)
		}
		return results
	}

	// Channels with a real batch API keep the same contract.
	if batch, ok := ch.(BatchSender); ok {
		return batch.SendBatch(ctx, message, recipients)
	}

	results := make([]SendResult, len(recipients))
	sem := make(chan struct{}, d.Limit)
	var wg sync.WaitGroup

	for i, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, recipient string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = ch.Send(ctx, message, recipient)
		}(i, recipient)
	}
	wg.Wait()

	return results
}

// SendToAll dispatches across every channel, keyed by channel name. The
// config layer enforces one channel per kind, so names never collide.
// Unavailable channels are skipped and logged, never treated as fatal.
func (d *Dispatcher) SendToAll(ctx context.Context, message string, channels []Channel, recipients []string) map[string][]SendResult {
	out := make(map[string][]SendResult, len(channels))
	for _, ch := range channels {
		meta := ch.Metadata()
		if !ch.Available() {
			slog.Warn(config.MsgChannelSkipped,
				config.LogKeyComponent, config.CompNotify,
				config.LogKeyChannel, meta.Name,
			)
			continue
		}

		var results []SendResult
		if len(recipients) == 0 {
			results = []SendResult{ch.Send(ctx, message, "")}
		} else {
			results = d.SendToMultiple(ctx, message, ch, recipients)
		}

		for _, res := range results {
			if !res.Success {
				slog.Warn(config.MsgSendFailed,
					config.LogKeyComponent, config.CompNotify,
					config.LogKeyChannel, meta.Name,
					config.LogKeyRecipient, res.Recipient,
					config.LogKeyError, res.Err,
				)
			}
		}
		out[meta.Name] = results
	}
	return out
}

func unavailableResult(recipient string) SendResult {
	return SendResult{
		Recipient: recipient,
		Kind:      ErrKindUnavailable,
	}
}

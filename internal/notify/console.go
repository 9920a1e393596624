package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// ConsoleChannel writes messages to a local writer, normally stdout.
// It exists for development and as a channel of last resort.
type ConsoleChannel struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleChannel creates a channel writing to out.
func NewConsoleChannel(out io.Writer) *ConsoleChannel {
	return &ConsoleChannel{out: out}
}

// Send implements Channel.
func (c *ConsoleChannel) Send(ctx context.Context, message, recipient string) SendResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if recipient != "" {
		_, err = fmt.Fprintf(c.out, "[%s] %s\n", recipient, message)
	} else {
		_, err = fmt.Fprintln(c.out, message)
	}
	if err != nil {
		return SendResult{
			Recipient: recipient,
			Kind:      ErrKindSendFailed,
			Err:       err,
		}
	}
	return SendResult{Success: true, Recipient: recipient}
}

// Available implements Channel.
func (c *ConsoleChannel) Available() bool {
	return c.out != nil
}

// Metadata implements Channel.
func (c *ConsoleChannel) Metadata() Metadata {
	return Metadata{
		Name:         config.ChannelKindConsole,
		Capabilities: []string{"text"},
	}
}

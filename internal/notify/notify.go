// Package notify delivers outbound SMS notifications. Delivery is
// fire-and-forget from the gateway's point of view: failures are logged and
// counted, never retried, and never block a finalized registration from
// reporting success.
package notify

import "context"

// Sender delivers one text message to a phone number.
type Sender interface {
	Send(ctx context.Context, msisdn, text string) error
}

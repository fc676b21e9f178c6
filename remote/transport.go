// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import "context"

// Transport moves batches between a Server and a Client. Receive returns
// io.EOF once the sending side is closed and drained.
type Transport interface {
	Send(ctx context.Context, b Batch) error
	Receive(ctx context.Context) (Batch, error)
}

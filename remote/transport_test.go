package remote

import (
	"context"
	"io"
)

type chanTransport struct {
	ch chan Batch
}

func newChanTransport(buffer int) *chanTransport {
	return &chanTransport{ch: make(chan Batch, buffer)}
}

func (t *chanTransport) Send(ctx context.Context, b Batch) error {
	select {
	case t.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *chanTransport) Receive(ctx context.Context) (Batch, error) {
	select {
	case b, ok := <-t.ch:
		if !ok {
			return Batch{}, io.EOF
		}
		return b, nil
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	}
}

// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport carries remote strike batches between a server and a
// client.
package transport

import (
	"context"
	"io"
	"sync"

	"github.com/luxfi/glyphcache/remote"
)

var _ remote.Transport = (*Pipe)(nil)

// Pipe is one end of an in-process connection created by NewPipe.
type Pipe struct {
	in       <-chan remote.Batch
	out      chan<- remote.Batch
	done     chan struct{}
	peerDone <-chan struct{}
	once     sync.Once
}

// NewPipe returns two connected ends. Each direction buffers up to buffer
// batches.
func NewPipe(buffer int) (*Pipe, *Pipe) {
	ab := make(chan remote.Batch, buffer)
	ba := make(chan remote.Batch, buffer)
	a := &Pipe{in: ba, out: ab, done: make(chan struct{})}
	b := &Pipe{in: ab, out: ba, done: make(chan struct{})}
	a.peerDone = b.done
	b.peerDone = a.done
	return a, b
}

// Send delivers a batch to the other end. It fails with io.ErrClosedPipe
// once either end is closed.
func (p *Pipe) Send(ctx context.Context, b remote.Batch) error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	case <-p.peerDone:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.out <- b:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	case <-p.peerDone:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next batch. After the other end closes, buffered
// batches are still delivered, then io.EOF.
func (p *Pipe) Receive(ctx context.Context) (remote.Batch, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-p.done:
		return remote.Batch{}, io.ErrClosedPipe
	case <-ctx.Done():
		return remote.Batch{}, ctx.Err()
	case <-p.peerDone:
	}
	select {
	case b := <-p.in:
		return b, nil
	default:
		return remote.Batch{}, io.EOF
	}
}

// Close closes this end. It is safe to call more than once.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

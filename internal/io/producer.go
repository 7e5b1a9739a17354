package io

import (
	"context"
	"sync"
)

type Producer interface {
	// Submits a unit without blocking. Returns false once the producer is stopped.
	Produce(unit *WorkUnit) bool
}

// Feeds a work channel shared by the consumers. When the channel buffer is full the unit is
// handed over by a short lived goroutine, so the caller never blocks.
type StandardProducer struct {
	ctx     context.Context
	work    chan *WorkUnit
	pending sync.WaitGroup
}

func NewStandardProducer(ctx context.Context, work chan *WorkUnit) *StandardProducer {
	return &StandardProducer{
		ctx:  ctx,
		work: work,
	}
}

func (p *StandardProducer) Produce(unit *WorkUnit) bool {
	if p.ctx.Err() != nil {
		return false
	}

	select {
	case p.work <- unit:
		return true
	default:
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		select {
		case p.work <- unit:
		case <-p.ctx.Done():
		}
	}()
	return true
}

// Waits for the units handed over asynchronously to be queued or dropped
func (p *StandardProducer) Wait() {
	p.pending.Wait()
}

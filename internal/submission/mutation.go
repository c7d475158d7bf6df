package submission

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rentalqa/backend/internal/metrics"
)

// State is the lifecycle of a single Mutation.
type State int32

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var ErrMutationUsed = errors.New("mutation has already run")

// Mutation is one submission attempt: idle, then submitting, then succeeded
// or failed. Both end states are final; retrying means a new Mutation.
type Mutation struct {
	p     *Processor
	state atomic.Int32
}

func (p *Processor) NewMutation() *Mutation {
	return &Mutation{p: p}
}

func (m *Mutation) State() State {
	return State(m.state.Load())
}

// Mutate validates in, writes it as submitted, and on success invalidates the cached
// question list exactly once. On failure the cache is left alone and the
// returned Result holds whatever rows were committed before the error.
func (m *Mutation) Mutate(ctx context.Context, in Input) (*Result, error) {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateSubmitting)) {
		return nil, ErrMutationUsed
	}

	p := m.p
	p.pending.Add(1)
	metrics.SubmissionsInFlight.Inc()
	defer func() {
		p.pending.Add(-1)
		metrics.SubmissionsInFlight.Dec()
	}()

	in = Normalize(in)

	var res *Result
	err := p.check(in)
	if err == nil {
		res, err = p.write(ctx, in)
	}

	if err != nil {
		m.state.Store(int32(StateFailed))
		p.failed(ctx, res, err)
		return res, err
	}

	m.state.Store(int32(StateSucceeded))
	p.succeeded(ctx, res)
	return res, nil
}

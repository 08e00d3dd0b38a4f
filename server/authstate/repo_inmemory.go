package authstate

import (
	"sync"
	"time"

	apperrors "linkstash/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Flow state is short-lived and instance-local, so memory is the
// natural home for it.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{states: make(map[string]*FlowState)}
}

func (r *InMemoryRepo) Upsert(state string, flowState *FlowState) error {
	if state == "" || flowState == nil {
		return apperrors.ErrInternal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modification
	r.states[state] = &FlowState{
		CodeVerifier: flowState.CodeVerifier,
		Nonce:        flowState.Nonce,
		ReturnURL:    flowState.ReturnURL,
		CreatedAt:    flowState.CreatedAt,
	}
	return nil
}

func (r *InMemoryRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, apperrors.ErrStateNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flowState, exists := r.states[state]
	if !exists {
		return nil, apperrors.ErrStateNotFound
	}

	return &FlowState{
		CodeVerifier: flowState.CodeVerifier,
		Nonce:        flowState.Nonce,
		ReturnURL:    flowState.ReturnURL,
		CreatedAt:    flowState.CreatedAt,
	}, nil
}

func (r *InMemoryRepo) Delete(state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(olderThan time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for state, flowState := range r.states {
		if flowState.CreatedAt.Before(olderThan) {
			delete(r.states, state)
		}
	}
	return nil
}

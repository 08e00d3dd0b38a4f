package authstate

import "time"

// FlowState tracks one in-flight OAuth handshake, keyed by the state
// parameter. Created on initiation, consumed exactly once by the callback.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, flowState *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
	DeleteExpired(olderThan time.Time) error
}

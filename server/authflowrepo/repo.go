package authflowrepo

import "time"

// AuthFlowState is what the login redirect needs to remember until the provider
// calls back.
type AuthFlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	// Take returns the state and removes it; a state can only be used once.
	Take(state string) (*AuthFlowState, error)
	Delete(state string) error
	// DeleteExpired removes every state created before the cutoff and returns the count.
	DeleteExpired(cutoff time.Time) int
}

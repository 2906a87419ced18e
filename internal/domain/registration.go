package domain

import "fmt"

// RegistrationState is a stage of the invite registration flow
type RegistrationState string

const (
	StatePending         RegistrationState = "pending"
	StateCodeResolved    RegistrationState = "code_resolved"
	StateIdentityCreated RegistrationState = "identity_created"
	StateRegistered      RegistrationState = "registered"
	StateAbandoned       RegistrationState = "abandoned"
)

// Registration tracks one run of the invite flow.
// FailedAt is the stage that was being entered when the flow was abandoned.
type Registration struct {
	State       RegistrationState
	FailedAt    RegistrationState
	Code        string
	Role        Role
	IdentityID  string
	Profile     *Profile
	Err         error
	Compensated bool
}

// NewRegistration starts a flow for the given invite code
func NewRegistration(code string) *Registration {
	return &Registration{State: StatePending, Code: code}
}

// ResolveCode moves pending -> code_resolved
func (r *Registration) ResolveCode(role Role) error {
	if err := r.expect(StatePending, StateCodeResolved); err != nil {
		return err
	}
	r.Role = role
	r.State = StateCodeResolved
	return nil
}

// CreateIdentity moves code_resolved -> identity_created
func (r *Registration) CreateIdentity(identityID string) error {
	if err := r.expect(StateCodeResolved, StateIdentityCreated); err != nil {
		return err
	}
	r.IdentityID = identityID
	r.State = StateIdentityCreated
	return nil
}

// Register moves identity_created -> registered
func (r *Registration) Register(p Profile) error {
	if err := r.expect(StateIdentityCreated, StateRegistered); err != nil {
		return err
	}
	r.Profile = &p
	r.State = StateRegistered
	return nil
}

// Abandon records the failure of the stage being entered. Terminal states are left alone.
func (r *Registration) Abandon(err error) {
	if r.Done() {
		return
	}
	r.FailedAt = r.next()
	r.State = StateAbandoned
	r.Err = &RegistrationError{Stage: r.FailedAt, Err: err}
}

// Done reports whether the flow reached a terminal state
func (r *Registration) Done() bool {
	return r.State == StateRegistered || r.State == StateAbandoned
}

// Orphaned reports whether an identity was left behind without a profile
func (r *Registration) Orphaned() bool {
	return r.State == StateAbandoned && r.IdentityID != "" && !r.Compensated
}

func (r *Registration) next() RegistrationState {
	switch r.State {
	case StatePending:
		return StateCodeResolved
	case StateCodeResolved:
		return StateIdentityCreated
	case StateIdentityCreated:
		return StateRegistered
	}
	return r.State
}

func (r *Registration) expect(from, to RegistrationState) error {
	if r.State != from {
		return fmt.Errorf("registration: cannot move from %s to %s", r.State, to)
	}
	return nil
}

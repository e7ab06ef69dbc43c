package whitelist

// ReviewGate is the staff decision surface for applications in the
// reviewable band. Both actions are capability-gated and idempotent:
// once the record has left pending, a second invocation fails with
// ErrAlreadyDecided instead of re-applying side effects
type ReviewGate struct {
	orchestrator *Orchestrator
	directory    Directory
}

func NewReviewGate(orchestrator *Orchestrator, directory Directory) *ReviewGate {
	return &ReviewGate{orchestrator: orchestrator, directory: directory}
}

// Approve records the approval and applies role grants, role
// revocations and the nickname rewrite. An ErrSideEffects result means
// the decision is recorded but some effects need manual attention
func (gate *ReviewGate) Approve(userid string, staff Actor) error {

	if !gate.directory.IsStaff(staff.Id) {
		return ErrUnauthorized
	}
	return gate.orchestrator.decide(userid, true, staff, false)
}

// Reject records the rejection. No role mutation happens on this path
func (gate *ReviewGate) Reject(userid string, staff Actor) error {

	if !gate.directory.IsStaff(staff.Id) {
		return ErrUnauthorized
	}
	return gate.orchestrator.decide(userid, false, staff, false)
}

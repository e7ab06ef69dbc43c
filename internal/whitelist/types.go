package whitelist

import (
	"errors"
	"time"

	"purobot/internal/robloxapi"
	"purobot/internal/store"
)

// State of one applicant's attempt inside the flow. Terminal outcomes
// (approved, rejected) live in the store, not here: an attempt exists
// only while the flow is in progress
type State string

const (
	StateVerifying     State = "verifying"
	StateQuestioning   State = "questioning"
	StateEvaluating    State = "evaluating"
	StateSupplementary State = "supplementary"
	StatePendingReview State = "pending-review"
)

var (
	// ErrDuplicateAttempt means the user already has an attempt in progress
	ErrDuplicateAttempt = errors.New("whitelist attempt already in progress")
	// ErrAlreadyDecided means the user has a terminal record and the
	// one-shot policy blocks re-application until a staff reset
	ErrAlreadyDecided = errors.New("whitelist already decided for this user")
	// ErrProfileNotFound means the submitted username resolves to no account
	ErrProfileNotFound = errors.New("roblox profile not found")
	// ErrCodeMismatch means the challenge code is not in the profile description
	ErrCodeMismatch = errors.New("verification code not found in profile description")
	// ErrNoChallenge means there is no pending verification for the user,
	// either because none was issued or because it already expired
	ErrNoChallenge = errors.New("no pending verification")
	// ErrUnauthorized means a staff-gated action was invoked without the
	// staff capability
	ErrUnauthorized = errors.New("staff capability required")
	// ErrQuestionnaireTimeout aborts the whole attempt: a question went
	// unanswered past the per-question timeout
	ErrQuestionnaireTimeout = errors.New("questionnaire timed out")
	// ErrAttemptCancelled means the attempt was torn down by another path
	// (timeout or staff reset) while a step was still waiting
	ErrAttemptCancelled = errors.New("whitelist attempt cancelled")
	// ErrSideEffects means the decision was recorded but some of its
	// side effects (role grants, nickname rewrite) failed
	ErrSideEffects = errors.New("some side effects failed")
)

// InboundMessage is one chat message from an applicant, routed from the
// platform event handler into whichever step is waiting for it
type InboundMessage struct {
	UserId    string
	ChannelId string
	MessageId string
	Content   string
}

// Actor identifies who took a decision, for the audit trail
type Actor struct {
	Id   string
	Name string
}

// ProfileLookup fetches an external profile for a username
type ProfileLookup interface {
	GetProfile(username string) (robloxapi.Profile, error)
}

// Directory mutates server-side state for a member: the private
// channel, roles and nickname. Every call is an unreliable remote call
// and is fault-isolated by the orchestrator
type Directory interface {
	CreateApplicantChannel(userid string, username string) (channelid string, err error)
	DeleteChannel(channelid string) error
	GrantRole(userid string, roleid string) error
	RevokeRole(userid string, roleid string) error
	SetNickname(userid string, nickname string) error
	MemberName(userid string) (string, error)
	IsStaff(userid string) bool
}

// Presenter renders everything the flow says to users and staff:
// channel prompts, the review request, result notifications, DMs and
// audit log entries. All of it is best effort; rendering failures never
// abort the flow
type Presenter interface {
	VerificationPrompt(channelid string, userid string, code string, timeout time.Duration) error
	VerificationExpired(channelid string, userid string)
	ProfileVerified(channelid string, profile robloxapi.Profile)
	Question(channelid string, index int, total int, question string, supplementary bool) (messageid string, err error)
	QuestionnaireExpired(channelid string)
	SupplementaryNotice(channelid string, userid string, primaryScore float64)
	ReviewRequest(app store.Application, eval Evaluation, combined *CombinedEvaluation) error
	AutoApproved(app store.Application)
	Decision(app store.Application, approved bool, staff Actor)
	ResetNotice(app *store.Application, userid string, staff Actor)
	DeleteMessage(channelid string, messageid string) error
}

// Config carries the timing knobs and the role mutations applied on
// approval
type Config struct {
	VerifyTimeout  time.Duration
	AnswerTimeout  time.Duration
	TeardownDelay  time.Duration
	ApproveRoleIds []string
	RevokeRoleIds  []string
}

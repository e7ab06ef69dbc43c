package whitelist

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"purobot/internal/common"
	"purobot/internal/robloxapi"
	"purobot/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Attempt is one applicant's in-flight run through the whitelist flow.
// At most one exists per user id; terminal outcomes live in the store
type Attempt struct {
	UserId     string
	ChannelId  string
	MemberName string
	State      State
	Profile    robloxapi.Profile

	// closed when the attempt is torn down, cancelling waiting steps
	done chan struct{}
}

// Orchestrator owns the whitelist state machine: it sequences
// verification, the questionnaire, evaluation, the decision branches
// and teardown. Each applicant's flow is an independent task; the only
// shared state are the keyed maps below, all single-writer per key
type Orchestrator struct {
	cfg           Config
	store         *store.Store
	directory     Directory
	presenter     Presenter
	verifier      *Verifier
	questionnaire *Questionnaire

	mu        sync.Mutex
	attempts  map[string]*Attempt
	waiters   map[string]chan InboundMessage
	teardowns map[string]*common.Deferred
}

func NewOrchestrator(cfg Config, st *store.Store, lookup ProfileLookup, directory Directory, presenter Presenter) *Orchestrator {

	o := &Orchestrator{
		cfg:       cfg,
		store:     st,
		directory: directory,
		presenter: presenter,
		attempts:  map[string]*Attempt{},
		waiters:   map[string]chan InboundMessage{},
		teardowns: map[string]*common.Deferred{},
	}
	o.verifier = NewVerifier(lookup, cfg.VerifyTimeout, o.handleVerificationTimeout)
	o.questionnaire = NewQuestionnaire(presenter, o, cfg.AnswerTimeout)
	return o
}

// Begin starts a new attempt for the user: guards the one-shot policy,
// creates the private channel and issues the verification challenge
func (o *Orchestrator) Begin(userid string) (string, error) {

	if o.store.HasDecided(userid) {
		return "", ErrAlreadyDecided
	}

	o.mu.Lock()
	if _, ok := o.attempts[userid]; ok {
		o.mu.Unlock()
		return "", ErrDuplicateAttempt
	}
	attempt := &Attempt{UserId: userid, State: StateVerifying, done: make(chan struct{})}
	o.attempts[userid] = attempt
	o.mu.Unlock()

	name, err := o.directory.MemberName(userid)
	if err != nil {
		o.clearAttempt(userid)
		return "", fmt.Errorf("could not resolve member name for user %s: %w", userid, err)
	}

	channelid, err := o.directory.CreateApplicantChannel(userid, name)
	if err != nil {
		o.clearAttempt(userid)
		return "", fmt.Errorf("could not create whitelist channel for user %s: %w", userid, err)
	}

	o.mu.Lock()
	attempt.ChannelId = channelid
	attempt.MemberName = name
	o.mu.Unlock()

	challenge := o.verifier.Begin(userid, channelid)
	if err := o.presenter.VerificationPrompt(channelid, userid, challenge.Code, o.cfg.VerifyTimeout); err != nil {
		// Without the prompt the user cannot see the code, so the
		// attempt is unusable. Tear everything down
		o.verifier.Cancel(userid)
		o.clearAttempt(userid)
		if derr := o.directory.DeleteChannel(channelid); derr != nil {
			log.Warn().Msg(fmt.Sprintf("Could not delete channel %s after failed prompt: %s", channelid, derr))
		}
		return "", fmt.Errorf("could not send verification prompt: %w", err)
	}

	log.Info().Msg(fmt.Sprintf("Whitelist attempt started for user %s in channel %s", userid, channelid))
	return channelid, nil
}

// SubmitVerification handles the username the applicant typed into the
// verification form. Lookup and mismatch failures are retryable and do
// not consume the verification timeout
func (o *Orchestrator) SubmitVerification(userid string, username string) (robloxapi.Profile, error) {

	// State is written by the questionnaire goroutine, so the check has
	// to happen under the lock
	o.mu.Lock()
	attempt := o.attempts[userid]
	if attempt == nil || attempt.State != StateVerifying {
		o.mu.Unlock()
		return robloxapi.Profile{}, ErrNoChallenge
	}
	o.mu.Unlock()

	profile, err := o.verifier.Attempt(userid, username)
	if err != nil {
		return robloxapi.Profile{}, err
	}

	o.mu.Lock()
	attempt.State = StateQuestioning
	attempt.Profile = profile
	o.mu.Unlock()

	o.presenter.ProfileVerified(attempt.ChannelId, profile)
	go o.runQuestionnaire(attempt)

	return profile, nil
}

// HandleMessage routes an inbound chat message to whichever step is
// waiting for the applicant in that channel. Reports whether the
// message was consumed as an answer
func (o *Orchestrator) HandleMessage(message InboundMessage) bool {

	key := waiterKey(message.UserId, message.ChannelId)
	o.mu.Lock()
	ch, ok := o.waiters[key]
	o.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case ch <- message:
		return true
	default:
		return false
	}
}

// Reset is the staff escape hatch: it erases the application record,
// cancels any in-flight attempt and deletes the channel immediately,
// unconditionally re-enabling intake for the target
func (o *Orchestrator) Reset(targetid string, staff Actor) error {

	if !o.directory.IsStaff(staff.Id) {
		return ErrUnauthorized
	}

	app, existed, err := o.store.Delete(targetid)
	if err != nil {
		return fmt.Errorf("could not erase application record for user %s: %w", targetid, err)
	}

	o.verifier.Cancel(targetid)

	o.mu.Lock()
	attempt, active := o.attempts[targetid]
	var channelid string
	if active {
		channelid = attempt.ChannelId
		delete(o.attempts, targetid)
		close(attempt.done)
	}
	o.mu.Unlock()

	if channelid != "" {
		o.cancelTeardown(channelid)
		if err := o.directory.DeleteChannel(channelid); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not delete channel %s during reset: %s", channelid, err))
		}
	}

	var appPtr *store.Application
	if existed {
		appPtr = &app
	}
	o.presenter.ResetNotice(appPtr, targetid, staff)

	log.Info().Msg(fmt.Sprintf("Whitelist reset for user %s by %s (record existed: %t, attempt active: %t)", targetid, staff.Name, existed, active))
	return nil
}

// Await and Release implement Waiter for the questionnaire

func (o *Orchestrator) Await(userid string, channelid string) <-chan InboundMessage {
	ch := make(chan InboundMessage, 8)
	o.mu.Lock()
	o.waiters[waiterKey(userid, channelid)] = ch
	o.mu.Unlock()
	return ch
}

func (o *Orchestrator) Release(userid string, channelid string) {
	o.mu.Lock()
	delete(o.waiters, waiterKey(userid, channelid))
	o.mu.Unlock()
}

func (o *Orchestrator) runQuestionnaire(attempt *Attempt) {

	answers, err := o.questionnaire.Run(attempt.UserId, attempt.ChannelId, PrimaryRubric, false, attempt.done)
	if err != nil {
		o.abortQuestionnaire(attempt, err)
		return
	}

	o.setState(attempt, StateEvaluating)
	primary := Evaluate(answers, PrimaryRubric)
	log.Info().Msg(fmt.Sprintf("Primary evaluation for user %s: %.1f%% (%s)", attempt.UserId, primary.Percentage, primary.Recommendation))

	var secondaryAnswers []string
	var combined *CombinedEvaluation
	if primary.NeedsSupplementary {
		o.setState(attempt, StateSupplementary)
		o.presenter.SupplementaryNotice(attempt.ChannelId, attempt.UserId, primary.Percentage)

		secondaryAnswers, err = o.questionnaire.Run(attempt.UserId, attempt.ChannelId, SecondaryRubric, true, attempt.done)
		if err != nil {
			o.abortQuestionnaire(attempt, err)
			return
		}
		c := EvaluateCombined(primary, Evaluate(secondaryAnswers, SecondaryRubric))
		combined = &c
		log.Info().Msg(fmt.Sprintf("Combined evaluation for user %s: %.1f%% (%s)", attempt.UserId, c.Combined, c.Recommendation))
	}

	score := primary.Percentage
	autoApprove := primary.AutoApprove
	if combined != nil {
		score = combined.Combined
		autoApprove = combined.AutoApprove
	}

	app := store.Application{
		Id:               uuid.New(),
		UserId:           attempt.UserId,
		UserDisplay:      attempt.MemberName + " | " + attempt.Profile.Username,
		Answers:          answers,
		SecondaryAnswers: secondaryAnswers,
		ChannelId:        attempt.ChannelId,
		Status:           store.StatusPending,
		Score:            score,
		SubmittedAt:      time.Now(),
		Roblox: store.RobloxInfo{
			Username:       attempt.Profile.Username,
			DisplayName:    attempt.Profile.DisplayName,
			ProfileUrl:     attempt.Profile.ProfileUrl(),
			AvatarUrl:      attempt.Profile.AvatarUrl,
			AccountCreated: attempt.Profile.Created,
			Description:    attempt.Profile.Description,
		},
	}
	if err := o.store.Put(app); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not persist application for user %s: %s", attempt.UserId, err))
	}

	if autoApprove {
		if err := o.decide(attempt.UserId, true, Actor{Name: "Sistema AutoMod"}, true); err != nil && !errors.Is(err, ErrSideEffects) {
			log.Error().Msg(fmt.Sprintf("Auto-approval for user %s failed: %s", attempt.UserId, err))
		}
		return
	}

	o.setState(attempt, StatePendingReview)
	if err := o.presenter.ReviewRequest(app, primary, combined); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not hand application of user %s to staff: %s", attempt.UserId, err))
	}
}

// decide records the terminal decision and applies its side effects.
// The store's atomic status check is the double-decision guard; role
// and nickname mutations afterwards are best effort and never block
// the recorded decision
func (o *Orchestrator) decide(userid string, approve bool, actor Actor, auto bool) error {

	status := store.StatusRejected
	if approve {
		status = store.StatusApproved
	}

	app, err := o.store.SetDecision(userid, status, actor.Name, auto)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyDecided) {
			return ErrAlreadyDecided
		}
		return err
	}

	var sideEffectErr error
	if approve {
		sideEffectErr = o.applyApprovalEffects(app)
		if sideEffectErr != nil {
			log.Warn().Msg(fmt.Sprintf("Approval side effects for user %s incomplete: %s", userid, sideEffectErr))
		}
	}

	if auto {
		o.presenter.AutoApproved(app)
	} else {
		o.presenter.Decision(app, approve, actor)
	}

	o.clearAttempt(userid)
	o.scheduleTeardown(app.ChannelId)

	log.Info().Msg(fmt.Sprintf("Whitelist of user %s %s by %s", userid, status, actor.Name))
	return sideEffectErr
}

// applyApprovalEffects grants and revokes the configured roles and
// rewrites the nickname. Each call is fault-isolated; failures are
// collected, not fatal
func (o *Orchestrator) applyApprovalEffects(app store.Application) error {

	var failures []string
	for _, roleid := range o.cfg.ApproveRoleIds {
		if err := o.directory.GrantRole(app.UserId, roleid); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not grant role %s to user %s: %s", roleid, app.UserId, err))
			failures = append(failures, fmt.Sprintf("grant role %s", roleid))
		}
	}
	for _, roleid := range o.cfg.RevokeRoleIds {
		if err := o.directory.RevokeRole(app.UserId, roleid); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not revoke role %s from user %s: %s", roleid, app.UserId, err))
			failures = append(failures, fmt.Sprintf("revoke role %s", roleid))
		}
	}

	name, err := o.directory.MemberName(app.UserId)
	if err != nil {
		failures = append(failures, "resolve member name for nickname")
	} else if err := o.directory.SetNickname(app.UserId, ComposeNickname(name, app.Roblox.Username)); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not set nickname for user %s: %s", app.UserId, err))
		failures = append(failures, "set nickname")
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrSideEffects, strings.Join(failures, ", "))
	}
	return nil
}

func (o *Orchestrator) handleVerificationTimeout(userid string, channelid string) {

	// The verifier already removed the challenge atomically; if the
	// attempt is gone too, another path won
	if !o.clearAttempt(userid) {
		return
	}
	o.presenter.VerificationExpired(channelid, userid)
	o.scheduleTeardown(channelid)
}

func (o *Orchestrator) abortQuestionnaire(attempt *Attempt, err error) {

	if errors.Is(err, ErrAttemptCancelled) {
		// Torn down by a reset while waiting; nothing left to do
		return
	}
	if !o.clearAttempt(attempt.UserId) {
		return
	}
	if errors.Is(err, ErrQuestionnaireTimeout) {
		o.presenter.QuestionnaireExpired(attempt.ChannelId)
	} else {
		log.Error().Msg(fmt.Sprintf("Questionnaire for user %s aborted: %s", attempt.UserId, err))
	}
	o.scheduleTeardown(attempt.ChannelId)
}

// scheduleTeardown deletes the channel after the grace delay, letting
// the user read the final notice first. Idempotent per channel, and
// cancellable if another path deletes the channel earlier
func (o *Orchestrator) scheduleTeardown(channelid string) {

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.teardowns[channelid]; ok {
		return
	}
	o.teardowns[channelid] = common.RunAfter(o.cfg.TeardownDelay, func() {
		o.mu.Lock()
		delete(o.teardowns, channelid)
		o.mu.Unlock()
		if err := o.directory.DeleteChannel(channelid); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not delete channel %s: %s", channelid, err))
		}
	})
}

func (o *Orchestrator) cancelTeardown(channelid string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if deferred, ok := o.teardowns[channelid]; ok {
		deferred.Cancel()
		delete(o.teardowns, channelid)
	}
}

// clearAttempt removes the attempt atomically and cancels its waiting
// steps. The boolean result decides races: the caller that got true is
// the one allowed to apply teardown effects
func (o *Orchestrator) clearAttempt(userid string) bool {

	o.mu.Lock()
	defer o.mu.Unlock()
	attempt, ok := o.attempts[userid]
	if !ok {
		return false
	}
	delete(o.attempts, userid)
	close(attempt.done)
	return true
}

func (o *Orchestrator) setState(attempt *Attempt, state State) {
	o.mu.Lock()
	attempt.State = state
	o.mu.Unlock()
}

func waiterKey(userid string, channelid string) string {
	return userid + "/" + channelid
}

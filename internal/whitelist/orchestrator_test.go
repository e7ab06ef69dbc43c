package whitelist

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"purobot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var perfectSecondaryAnswers = []string{
	"PKT o player kill total es la muerte total del personaje",
	"IC es in character y OOC es out of character",
	"Car kill es matar a alguien con un vehículo",
	"VDM es vehicle deathmatch, usar el vehículo como arma",
	"BD o bad driving es conducir de forma imprudente",
}

type fakeDirectory struct {
	mu              sync.Mutex
	staff           map[string]bool
	names           map[string]string
	created         []string
	deletedChannels []string
	granted         []string
	revoked         []string
	nicknames       map[string]string
	nextChannel     int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		staff:     map[string]bool{"staff1": true},
		names:     map[string]string{},
		nicknames: map[string]string{},
	}
}

func (f *fakeDirectory) CreateApplicantChannel(userid string, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextChannel++
	channelid := fmt.Sprintf("chan%d", f.nextChannel)
	f.created = append(f.created, channelid)
	return channelid, nil
}

func (f *fakeDirectory) DeleteChannel(channelid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedChannels = append(f.deletedChannels, channelid)
	return nil
}

func (f *fakeDirectory) GrantRole(userid string, roleid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = append(f.granted, userid+"/"+roleid)
	return nil
}

func (f *fakeDirectory) RevokeRole(userid string, roleid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userid+"/"+roleid)
	return nil
}

func (f *fakeDirectory) SetNickname(userid string, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicknames[userid] = nickname
	return nil
}

func (f *fakeDirectory) MemberName(userid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.names[userid]; ok {
		return name, nil
	}
	return "Member", nil
}

func (f *fakeDirectory) IsStaff(userid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staff[userid]
}

func (f *fakeDirectory) deletedChannelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletedChannels)
}

type harness struct {
	store        *store.Store
	lookup       *fakeLookup
	directory    *fakeDirectory
	presenter    *fakePresenter
	orchestrator *Orchestrator
}

func newHarness(t *testing.T, answerTimeout time.Duration) *harness {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "applications.json"))
	require.NoError(t, err)

	h := &harness{
		store:     st,
		lookup:    newFakeLookup(),
		directory: newFakeDirectory(),
		presenter: newFakePresenter(),
	}
	h.orchestrator = NewOrchestrator(Config{
		VerifyTimeout:  time.Minute,
		AnswerTimeout:  answerTimeout,
		TeardownDelay:  10 * time.Millisecond,
		ApproveRoleIds: []string{"role-whitelisted"},
		RevokeRoleIds:  []string{"role-guest"},
	}, st, h.lookup, h.directory, h.presenter)
	return h
}

// beginAndVerify walks one applicant through intake and verification
func (h *harness) beginAndVerify(t *testing.T, userid string) string {
	t.Helper()

	channelid, err := h.orchestrator.Begin(userid)
	require.NoError(t, err)

	h.lookup.set("pepito", "mi código: "+DeriveCode(userid))
	_, err = h.orchestrator.SubmitVerification(userid, "pepito")
	require.NoError(t, err)
	return channelid
}

// answer feeds one chat message as the reply to the next question
func (h *harness) answer(t *testing.T, userid string, channelid string, index int, content string) {
	t.Helper()

	select {
	case <-h.presenter.questionSent:
	case <-time.After(time.Second):
		t.Fatalf("question %d was never asked", index)
	}
	consumed := h.orchestrator.HandleMessage(InboundMessage{
		UserId:    userid,
		ChannelId: channelid,
		MessageId: fmt.Sprintf("msg%d", index),
		Content:   content,
	})
	require.True(t, consumed)
}

func TestBeginGuardsDuplicateAttempts(t *testing.T) {

	h := newHarness(t, time.Second)

	channelid, err := h.orchestrator.Begin("42")
	require.NoError(t, err)
	assert.NotEmpty(t, channelid)
	assert.Equal(t, []string{channelid}, h.presenter.prompts)

	_, err = h.orchestrator.Begin("42")
	assert.ErrorIs(t, err, ErrDuplicateAttempt)
}

func TestBeginEnforcesOneShotPolicy(t *testing.T) {

	h := newHarness(t, time.Second)
	require.NoError(t, h.store.Put(store.Application{UserId: "42", Status: store.StatusPending}))
	_, err := h.store.SetDecision("42", store.StatusRejected, "staff1", false)
	require.NoError(t, err)

	_, err = h.orchestrator.Begin("42")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestBeginRollsBackWhenPromptFails(t *testing.T) {

	h := newHarness(t, time.Second)
	h.presenter.promptErr = fmt.Errorf("discord hiccup")

	_, err := h.orchestrator.Begin("42")
	require.Error(t, err)
	assert.Equal(t, 1, h.directory.deletedChannelCount())

	// The failed attempt does not linger
	h.presenter.promptErr = nil
	_, err = h.orchestrator.Begin("42")
	assert.NoError(t, err)
}

func TestSubmitVerificationRequiresActiveAttempt(t *testing.T) {

	h := newHarness(t, time.Second)
	_, err := h.orchestrator.SubmitVerification("42", "pepito")
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestSubmitVerificationOnlyOnceBeforeQuestioning(t *testing.T) {

	h := newHarness(t, time.Second)
	h.beginAndVerify(t, "42")

	// The attempt moved on to the questionnaire; a late second submit
	// (stale modal) finds no challenge to act on
	_, err := h.orchestrator.SubmitVerification("42", "pepito")
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestAutoApprovalFlow(t *testing.T) {

	h := newHarness(t, time.Second)
	h.directory.names["42"] = "Juanito"

	channelid := h.beginAndVerify(t, "42")
	for i, answer := range perfectAnswers {
		h.answer(t, "42", channelid, i, answer)
	}

	require.Eventually(t, func() bool {
		return h.store.HasDecided("42")
	}, time.Second, 5*time.Millisecond)

	app, ok := h.store.Get("42")
	require.True(t, ok)
	assert.Equal(t, store.StatusApproved, app.Status)
	assert.True(t, app.AutoApproved)
	assert.Equal(t, 100.0, app.Score)
	assert.Equal(t, "Juanito | pepito", app.UserDisplay)
	assert.Equal(t, "Sistema AutoMod", app.DecidedBy)

	h.directory.mu.Lock()
	assert.Equal(t, []string{"42/role-whitelisted"}, h.directory.granted)
	assert.Equal(t, []string{"42/role-guest"}, h.directory.revoked)
	assert.Equal(t, "Juanito | pepito", h.directory.nicknames["42"])
	h.directory.mu.Unlock()

	// The channel is torn down after the grace delay
	require.Eventually(t, func() bool {
		return h.directory.deletedChannelCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLowScoreRunsSupplementaryAndGoesToReview(t *testing.T) {

	h := newHarness(t, time.Second)
	channelid := h.beginAndVerify(t, "42")

	// Blank primary answers score zero and trigger the supplementary pass
	for i := range PrimaryRubric {
		h.answer(t, "42", channelid, i, "")
	}
	for i, answer := range perfectSecondaryAnswers {
		h.answer(t, "42", channelid, len(PrimaryRubric)+i, answer)
	}

	require.Eventually(t, func() bool {
		h.presenter.mu.Lock()
		defer h.presenter.mu.Unlock()
		return len(h.presenter.reviews) == 1
	}, time.Second, 5*time.Millisecond)

	h.presenter.mu.Lock()
	assert.Len(t, h.presenter.supplementary, 1)
	app := h.presenter.reviews[0]
	h.presenter.mu.Unlock()

	// 0.7*0 + 0.3*100
	assert.InDelta(t, 30.0, app.Score, 0.001)
	assert.Equal(t, store.StatusPending, app.Status)
	assert.Len(t, app.Answers, len(PrimaryRubric))
	assert.Len(t, app.SecondaryAnswers, len(SecondaryRubric))

	gate := NewReviewGate(h.orchestrator, h.directory)

	// Only staff can decide
	err := gate.Approve("42", Actor{Id: "rando", Name: "Rando"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, gate.Approve("42", Actor{Id: "staff1", Name: "Mod"}))
	decided, _ := h.store.Get("42")
	assert.Equal(t, store.StatusApproved, decided.Status)
	assert.Equal(t, "Mod", decided.DecidedBy)
	assert.False(t, decided.AutoApproved)

	// A second decision is rejected, not re-applied
	err = gate.Reject("42", Actor{Id: "staff1", Name: "Mod"})
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestQuestionnaireTimeoutTearsDownAttempt(t *testing.T) {

	h := newHarness(t, 20*time.Millisecond)
	h.beginAndVerify(t, "42")

	require.Eventually(t, func() bool {
		h.presenter.mu.Lock()
		defer h.presenter.mu.Unlock()
		return len(h.presenter.questExpired) == 1
	}, time.Second, 5*time.Millisecond)

	// The attempt is gone, so the user can start over
	require.Eventually(t, func() bool {
		_, err := h.orchestrator.Begin("42")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestResetRequiresStaff(t *testing.T) {

	h := newHarness(t, time.Second)
	err := h.orchestrator.Reset("42", Actor{Id: "rando", Name: "Rando"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResetErasesRecordAndAttempt(t *testing.T) {

	h := newHarness(t, time.Second)
	channelid := h.beginAndVerify(t, "42")
	for i, answer := range perfectAnswers {
		h.answer(t, "42", channelid, i, answer)
	}
	require.Eventually(t, func() bool {
		return h.store.HasDecided("42")
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.orchestrator.Reset("42", Actor{Id: "staff1", Name: "Mod"}))

	assert.False(t, h.store.HasDecided("42"))
	_, ok := h.store.Get("42")
	assert.False(t, ok)

	h.presenter.mu.Lock()
	assert.Equal(t, []string{"42"}, h.presenter.resets)
	h.presenter.mu.Unlock()

	// One-shot policy is unlocked again
	_, err := h.orchestrator.Begin("42")
	assert.NoError(t, err)
}

func TestHandleMessageIgnoresUnrelatedChannels(t *testing.T) {

	h := newHarness(t, time.Second)
	consumed := h.orchestrator.HandleMessage(InboundMessage{UserId: "42", ChannelId: "random", Content: "hola"})
	assert.False(t, consumed)
}

package whitelist

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"purobot/internal/common"
	"purobot/internal/robloxapi"

	"github.com/rs/zerolog/log"
)

// The small fixed set of challenge codes. Which one a user gets is
// derived from the user id, so repeated begins hand out the same code
var verificationCodes = []string{"PuroCL", "PuroChile", "PuroChileRP", "PRCL"}

// Challenge is the ephemeral account-linking state of one applicant
// in verifying status
type Challenge struct {
	UserId    string
	ChannelId string
	Code      string
	IssuedAt  time.Time

	timer *common.Deferred
}

// Verifier manages the account-linking step: it issues one challenge
// per applicant, matches submitted usernames against fetched profiles,
// and enforces a single timeout per challenge. The challenge map is the
// single source of truth: whoever removes the challenge first (success,
// cancel or timeout) wins, and the other path no-ops
type Verifier struct {
	lookup    ProfileLookup
	timeout   time.Duration
	onTimeout func(userid string, channelid string)

	mu         sync.Mutex
	challenges map[string]*Challenge
}

func NewVerifier(lookup ProfileLookup, timeout time.Duration, onTimeout func(userid string, channelid string)) *Verifier {
	return &Verifier{
		lookup:     lookup,
		timeout:    timeout,
		onTimeout:  onTimeout,
		challenges: map[string]*Challenge{},
	}
}

// DeriveCode picks a code for the user deterministically, so restarts
// are idempotent without storing the code durably
func DeriveCode(userid string) string {

	if id, err := strconv.ParseUint(userid, 10, 64); err == nil {
		return verificationCodes[id%uint64(len(verificationCodes))]
	}
	// Ids are numeric snowflakes in practice; hash as a fallback so the
	// derivation stays deterministic for any opaque id
	h := fnv.New64a()
	h.Write([]byte(userid))
	return verificationCodes[h.Sum64()%uint64(len(verificationCodes))]
}

// Begin issues the challenge for the applicant and starts its timeout
func (v *Verifier) Begin(userid string, channelid string) *Challenge {

	v.mu.Lock()
	defer v.mu.Unlock()

	if challenge, ok := v.challenges[userid]; ok {
		// Same attempt, same code. Keep the original timeout running
		return challenge
	}

	challenge := &Challenge{
		UserId:    userid,
		ChannelId: channelid,
		Code:      DeriveCode(userid),
		IssuedAt:  time.Now(),
	}
	challenge.timer = common.RunAfter(v.timeout, func() {
		if v.take(userid) == nil {
			// Verification succeeded or was cancelled first
			return
		}
		log.Info().Msg(fmt.Sprintf("Verification for user %s timed out", userid))
		v.onTimeout(userid, channelid)
	})
	v.challenges[userid] = challenge

	log.Debug().Msg(fmt.Sprintf("Issued verification code for user %s", userid))
	return challenge
}

// Attempt fetches the profile for the submitted username and checks the
// challenge code against its description. Lookup and mismatch failures
// keep the challenge (and its timeout) alive so the user can retry
func (v *Verifier) Attempt(userid string, username string) (robloxapi.Profile, error) {

	v.mu.Lock()
	challenge, ok := v.challenges[userid]
	v.mu.Unlock()
	if !ok {
		return robloxapi.Profile{}, ErrNoChallenge
	}

	profile, err := v.lookup.GetProfile(username)
	if err != nil {
		if errors.Is(err, robloxapi.ErrNotFound) {
			return robloxapi.Profile{}, ErrProfileNotFound
		}
		return robloxapi.Profile{}, err
	}

	// Exact, case-sensitive substring match.
	// Known weak property: nothing stops two applicants from linking the
	// same profile, or a code from being shared
	if !strings.Contains(profile.Description, challenge.Code) {
		log.Debug().Msg(fmt.Sprintf("Verification code for user %s not found in description of %s", userid, profile.Username))
		return robloxapi.Profile{}, ErrCodeMismatch
	}

	// Success and timeout race for the challenge; whoever takes it first
	// wins. If the timeout got here during the lookup, this success is late
	if v.take(userid) == nil {
		return robloxapi.Profile{}, ErrNoChallenge
	}

	log.Info().Msg(fmt.Sprintf("User %s verified as roblox account %s", userid, profile.Username))
	return profile, nil
}

// Cancel removes the challenge without firing the timeout callback
func (v *Verifier) Cancel(userid string) bool {
	return v.take(userid) != nil
}

// take atomically removes and returns the challenge, stopping its
// timer. Returns nil if it was already gone
func (v *Verifier) take(userid string) *Challenge {

	v.mu.Lock()
	defer v.mu.Unlock()

	challenge, ok := v.challenges[userid]
	if !ok {
		return nil
	}
	delete(v.challenges, userid)
	challenge.timer.Cancel()
	return challenge
}

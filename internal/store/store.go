package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var ErrNotFound = errors.New("application not found")
var ErrAlreadyDecided = errors.New("application already decided")

// RobloxInfo is the profile snapshot captured at verification time.
// It is embedded in the record, never fetched again
type RobloxInfo struct {
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	ProfileUrl     string    `json:"profile_url"`
	AvatarUrl      string    `json:"avatar_url"`
	AccountCreated time.Time `json:"account_created"`
	Description    string    `json:"description"`
}

// Application is one whitelist application record, keyed by user id
type Application struct {
	Id               uuid.UUID  `json:"id"`
	UserId           string     `json:"user_id"`
	UserDisplay      string     `json:"user_display"`
	Answers          []string   `json:"answers"`
	SecondaryAnswers []string   `json:"secondary_answers,omitempty"`
	ChannelId        string     `json:"channel_id"`
	Status           Status     `json:"status"`
	Score            float64    `json:"score"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	DecidedBy        string     `json:"decided_by,omitempty"`
	AutoApproved     bool       `json:"auto_approved,omitempty"`
	Roblox           RobloxInfo `json:"roblox_info"`
}

func (app *Application) Decided() bool {
	return app.Status == StatusApproved || app.Status == StatusRejected
}

// Store keeps one application per user id in a JSON file.
// All mutations rewrite the file
type Store struct {
	filename     string
	mu           sync.Mutex
	applications map[string]Application
}

func NewStore(filename string) (*Store, error) {

	s := &Store{filename: filename, applications: map[string]Application{}}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("could not read applications file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &s.applications); err != nil {
		return nil, fmt.Errorf("applications file %s is not correctly formatted: %w", filename, err)
	}

	log.Info().Msg(fmt.Sprintf("Loaded %d whitelist applications from %s", len(s.applications), filename))
	return s, nil
}

func (s *Store) Get(userid string) (Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[userid]
	return app, ok
}

// HasDecided reports whether the user has a terminal record,
// which is what locks re-application (one-shot policy)
func (s *Store) HasDecided(userid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[userid]
	return ok && app.Decided()
}

func (s *Store) Put(app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.UserId] = app
	return s.persist()
}

// SetDecision records a terminal decision for the user's application.
// Fails with ErrAlreadyDecided once the record has left pending
func (s *Store) SetDecision(userid string, status Status, decidedBy string, auto bool) (Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[userid]
	if !ok {
		return Application{}, ErrNotFound
	}
	if app.Decided() {
		return Application{}, ErrAlreadyDecided
	}

	now := time.Now()
	app.Status = status
	app.DecidedAt = &now
	app.DecidedBy = decidedBy
	app.AutoApproved = auto
	s.applications[userid] = app

	return app, s.persist()
}

// Delete erases the whole record for the user. This is the only way
// to unlock re-application
func (s *Store) Delete(userid string) (Application, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[userid]
	if !ok {
		return Application{}, false, nil
	}
	delete(s.applications, userid)
	return app, true, s.persist()
}

func (s *Store) persist() error {

	data, err := json.MarshalIndent(s.applications, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create data directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.filename, data, 0o644); err != nil {
		return fmt.Errorf("could not write applications file %s: %w", s.filename, err)
	}
	return nil
}

// Package subscribers manages the local subscriber bookkeeping file.
// Subscriber identity for dispatch lives with the mailing provider; this
// file only backs the signup-form export and unsubscribe tokens.
package subscribers

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiftyclub/alerter/internal/jsonfile"
)

// ErrAlreadySubscribed is returned when adding an email that is present.
var ErrAlreadySubscribed = errors.New("already subscribed")

// Subscriber is one signup, with the token the unsubscribe link carries.
type Subscriber struct {
	Email            string `json:"email"`
	SubscribedDate   string `json:"subscribed_date"`
	UnsubscribeToken string `json:"unsubscribe_token"`
}

type fileFormat struct {
	Subscribers []Subscriber `json:"subscribers"`
}

// Store holds subscribers in memory, bound to one backing file.
type Store struct {
	path string
	subs []Subscriber
}

// Load reads the subscriber file at path. A missing file yields an empty
// store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	var ff fileFormat
	err := jsonfile.Read(path, &ff)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	s.subs = ff.Subscribers
	return s, nil
}

// Add registers a new subscriber with a fresh unsubscribe token. Email
// matching is case-insensitive.
func (s *Store) Add(email string, now time.Time) (Subscriber, error) {
	for _, sub := range s.subs {
		if strings.EqualFold(sub.Email, email) {
			return Subscriber{}, fmt.Errorf("%w: %s", ErrAlreadySubscribed, email)
		}
	}

	sub := Subscriber{
		Email:            email,
		SubscribedDate:   now.Format(time.RFC3339),
		UnsubscribeToken: uuid.NewString(),
	}
	s.subs = append(s.subs, sub)
	return sub, nil
}

// Remove drops a subscriber by email, case-insensitively. Reports
// whether anything was removed.
func (s *Store) Remove(email string) bool {
	kept := s.subs[:0]
	for _, sub := range s.subs {
		if strings.EqualFold(sub.Email, email) {
			continue
		}
		kept = append(kept, sub)
	}
	removed := len(kept) < len(s.subs)
	s.subs = kept
	return removed
}

// RemoveByToken drops the subscriber holding the unsubscribe token and
// returns their email.
func (s *Store) RemoveByToken(token string) (string, bool) {
	for i, sub := range s.subs {
		if sub.UnsubscribeToken == token {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return sub.Email, true
		}
	}
	return "", false
}

// List returns all subscribers in signup order.
func (s *Store) List() []Subscriber {
	return s.subs
}

// Save persists the store atomically.
func (s *Store) Save() error {
	subs := s.subs
	if subs == nil {
		subs = []Subscriber{}
	}
	if err := jsonfile.WriteAtomic(s.path, fileFormat{Subscribers: subs}); err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}
	return nil
}

// Package ledger tracks which alert keys have already been dispatched.
//
// The backing file is a JSON document with a single sent_alerts array.
// The load path deliberately distinguishes an absent file (normal on the
// first run, start empty) from an unreadable one (fail the run): treating
// a corrupt ledger as empty would re-send every alert in history.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/fiftyclub/alerter/internal/jsonfile"
)

// ErrCorrupt marks a ledger file that exists but cannot be trusted.
var ErrCorrupt = errors.New("ledger file is corrupt")

// ledgerFile is the on-disk schema. SentAlerts is a pointer so a parsed
// document missing the field entirely can be told apart from an empty
// array; unknown extra fields are ignored to stay forward-readable.
type ledgerFile struct {
	SentAlerts *[]string `json:"sent_alerts"`
}

// Ledger is the in-memory set of dispatched alert keys, bound to one
// backing file. Not safe for concurrent use; a run owns it exclusively
// for its whole duration.
type Ledger struct {
	path  string
	keys  map[string]struct{}
	dirty bool
}

// Load reads the ledger at path. A missing file yields an empty ledger;
// a present but malformed file fails with ErrCorrupt.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, keys: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var ff ledgerFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if ff.SentAlerts == nil {
		return nil, fmt.Errorf("%w: %s: sent_alerts array missing", ErrCorrupt, path)
	}

	for _, key := range *ff.SentAlerts {
		l.keys[key] = struct{}{}
	}
	return l, nil
}

// Contains reports whether key has already been dispatched.
func (l *Ledger) Contains(key string) bool {
	_, ok := l.keys[key]
	return ok
}

// Record inserts keys into the ledger. Inserting an already-present key
// is a no-op.
func (l *Ledger) Record(keys ...string) {
	for _, key := range keys {
		if _, ok := l.keys[key]; ok {
			continue
		}
		l.keys[key] = struct{}{}
		l.dirty = true
	}
}

// Len returns the number of recorded keys.
func (l *Ledger) Len() int {
	return len(l.keys)
}

// Save persists the full key set atomically, backing up the previous
// file content first. A ledger with no new keys since Load is left
// untouched on disk.
func (l *Ledger) Save() error {
	if !l.dirty {
		return nil
	}

	keys := make([]string, 0, len(l.keys))
	for key := range l.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := jsonfile.WriteAtomic(l.path, ledgerFile{SentAlerts: &keys}); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	l.dirty = false
	return nil
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// snapshotRecord is the persisted projection of a Session. Pointer fields
// serialize as explicit nulls, never by key omission.
type snapshotRecord struct {
	Token           *string `json:"token"`
	User            *User   `json:"user"`
	IsAuthenticated bool    `json:"isAuthenticated"`
}

var snapshotKeys = []string{"token", "user", "isAuthenticated"}

// MarshalSnapshot serializes the session for a SnapshotMedium.
func MarshalSnapshot(s Session) []byte {
	rec := snapshotRecord{User: s.User, IsAuthenticated: s.IsAuthenticated}
	if s.Token != "" {
		token := s.Token
		rec.Token = &token
	}
	data, _ := json.Marshal(rec)
	return data
}

// UnmarshalSnapshot parses a persisted record. Unparsable records, records
// missing any key and records whose flag contradicts their fields all return
// ErrCorruptSnapshot.
func UnmarshalSnapshot(data []byte) (Session, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	for _, key := range snapshotKeys {
		if _, ok := fields[key]; !ok {
			return Session{}, fmt.Errorf("%w: missing %q", ErrCorruptSnapshot, key)
		}
	}

	var rec snapshotRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	s := Session{User: rec.User, IsAuthenticated: rec.IsAuthenticated}
	if rec.Token != nil {
		s.Token = *rec.Token
	}
	if s.User != nil && s.User.ID == 0 {
		return Session{}, fmt.Errorf("%w: user without id", ErrCorruptSnapshot)
	}
	if !s.Valid() {
		return Session{}, fmt.Errorf("%w: isAuthenticated disagrees with token and user", ErrCorruptSnapshot)
	}
	return s, nil
}

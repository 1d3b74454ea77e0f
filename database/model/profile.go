package model

import (
	"bytes"
	"time"

	"github.com/greenpoints/gp-ui/util/common"
	"github.com/greenpoints/gp-ui/util/json_util"

	json "github.com/goccy/go-json"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known role partitions.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserProfile is the per-member record keyed by (role, id). Id and Role are
// immutable after creation; Points and Bottles only grow, via Deposit.
type UserProfile struct {
	Id       string    `json:"id"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Points   int       `json:"points"`
	Bottles  int       `json:"bottles"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CredentialRecord pairs the stored password with its profile. Passwords are
// kept in plaintext for parity with the persisted blob format.
type CredentialRecord struct {
	Password string      `json:"password"`
	Profile  UserProfile `json:"profile"`
}

// Partition is an insertion-ordered map of id to CredentialRecord. Leaderboard
// tie-breaks and AllOfRole depend on insertion order surviving snapshot
// round-trips, so the JSON codec walks object keys in document order instead
// of going through a Go map.
type Partition struct {
	order   []string
	records map[string]CredentialRecord
}

func NewPartition() *Partition {
	return &Partition{records: make(map[string]CredentialRecord)}
}

func (p *Partition) Len() int {
	return len(p.order)
}

func (p *Partition) Get(id string) (CredentialRecord, bool) {
	rec, ok := p.records[id]
	return rec, ok
}

// Set inserts or replaces a record. New ids append to the iteration order,
// existing ids keep their position.
func (p *Partition) Set(id string, rec CredentialRecord) {
	if p.records == nil {
		p.records = make(map[string]CredentialRecord)
	}
	if _, ok := p.records[id]; !ok {
		p.order = append(p.order, id)
	}
	p.records[id] = rec
}

// Records returns all records in insertion order.
func (p *Partition) Records() []CredentialRecord {
	out := make([]CredentialRecord, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.records[id])
	}
	return out
}

// Profiles returns all profiles in insertion order.
func (p *Partition) Profiles() []UserProfile {
	out := make([]UserProfile, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.records[id].Profile)
	}
	return out
}

func (p *Partition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range p.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(p.records[id])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Partition) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return common.NewError("partition: expected JSON object")
	}

	p.order = nil
	p.records = make(map[string]CredentialRecord)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return common.NewError("partition: expected string key")
		}

		// Two-phase decode so a broken record reports its id.
		var raw json_util.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var rec CredentialRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return common.NewErrorf("partition: record %q: %v", id, err)
		}
		p.Set(id, rec)
	}

	_, err = dec.Token()
	return err
}

// Snapshot is the entire persisted profile state, one partition per role.
type Snapshot struct {
	Admin *Partition `json:"ADMIN"`
	User  *Partition `json:"USER"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Admin: NewPartition(), User: NewPartition()}
}

// Partition returns the partition for role, allocating it if the decoded
// blob omitted the key.
func (s *Snapshot) Partition(role Role) *Partition {
	switch role {
	case RoleAdmin:
		if s.Admin == nil {
			s.Admin = NewPartition()
		}
		return s.Admin
	default:
		if s.User == nil {
			s.User = NewPartition()
		}
		return s.User
	}
}

// Validate checks the decoded shape: known roles, non-empty ids, and record
// keys agreeing with the embedded profile. Any mismatch marks the whole blob
// corrupt; callers then fall back to an empty snapshot.
func (s *Snapshot) Validate() error {
	check := func(role Role, p *Partition) error {
		if p == nil {
			return nil
		}
		for _, id := range p.order {
			rec := p.records[id]
			if id == "" {
				return common.NewError("snapshot: empty id in partition", string(role))
			}
			if rec.Profile.Id != id {
				return common.NewErrorf("snapshot: record %q holds profile %q", id, rec.Profile.Id)
			}
			if !rec.Profile.Role.Valid() || rec.Profile.Role != role {
				return common.NewErrorf("snapshot: record %q has role %q in partition %s", id, rec.Profile.Role, role)
			}
			if rec.Profile.Points < 0 || rec.Profile.Bottles < 0 {
				return common.NewErrorf("snapshot: record %q has negative counters", id)
			}
		}
		return nil
	}
	if err := check(RoleAdmin, s.Admin); err != nil {
		return err
	}
	return check(RoleUser, s.User)
}

package service

import (
	"errors"
	"time"

	"github.com/greenpoints/gp-ui/database"
	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/logger"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const profileDBKey = "profile_database"

// Deposit reward, fixed per collected item.
const (
	depositPoints  = 50
	depositBottles = 1
)

// Demo-mode root credential. Succeeds without a store lookup and is never
// persisted; remove this branch before any real deployment.
const (
	bypassId       = "admin"
	bypassPassword = "password123"
)

var (
	ErrConflict = errors.New("identity already registered")
	ErrAuth     = errors.New("invalid id or password")
	ErrNotFound = errors.New("profile not found")
)

// ProfileService owns the role-partitioned credential+profile records. Every
// operation loads the whole snapshot, mutates it and writes it back; there is
// no partial update and no concurrency control (single-writer by design, the
// KV chokepoint is where a lock would go).
type ProfileService struct {
	kv database.KV
}

func NewProfileService(kv database.KV) *ProfileService {
	return &ProfileService{kv: kv}
}

// load reads and decodes the persisted snapshot. A missing, unparseable or
// schema-invalid blob is treated as empty state, never as a failure.
func (s *ProfileService) load() *model.Snapshot {
	value, ok, err := s.kv.Get(profileDBKey)
	if err != nil {
		logger.Warning("profile store read failed:", err)
		return model.NewSnapshot()
	}
	if !ok || value == "" {
		return model.NewSnapshot()
	}

	snap := model.NewSnapshot()
	if err := json.Unmarshal([]byte(value), snap); err != nil {
		logger.Warning("profile store blob corrupt, starting empty:", err)
		return model.NewSnapshot()
	}
	if err := snap.Validate(); err != nil {
		logger.Warning("profile store blob invalid, starting empty:", err)
		return model.NewSnapshot()
	}
	return snap
}

func (s *ProfileService) save(snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.kv.Set(profileDBKey, string(data))
}

// Create registers a new profile under (role, id). Fails with ErrConflict if
// the id is already taken in that partition.
func (s *ProfileService) Create(role model.Role, id string, name string, password string) (*model.UserProfile, error) {
	snap := s.load()
	partition := snap.Partition(role)

	if _, ok := partition.Get(id); ok {
		return nil, ErrConflict
	}

	profile := model.UserProfile{
		Id:       id,
		Name:     name,
		Role:     role,
		Points:   0,
		Bottles:  0,
		JoinedAt: time.Now().UTC(),
	}
	partition.Set(id, model.CredentialRecord{Password: password, Profile: profile})

	if err := s.save(snap); err != nil {
		return nil, err
	}
	logger.Infof("profile %s/%s registered", role, id)
	return &profile, nil
}

// Authenticate checks the stored plaintext password for (role, id). The
// comparison is exact and case-sensitive, matching the persisted format.
func (s *ProfileService) Authenticate(role model.Role, id string, password string) (*model.UserProfile, error) {
	if role == model.RoleAdmin && id == bypassId && password == bypassPassword {
		logger.Notice("root bypass credential used")
		return &model.UserProfile{
			Id:       "ADM-001",
			Name:     "Super Admin",
			Role:     model.RoleAdmin,
			JoinedAt: time.Now().UTC(),
		}, nil
	}

	rec, ok := s.load().Partition(role).Get(id)
	if !ok || rec.Password != password {
		return nil, ErrAuth
	}
	profile := rec.Profile
	return &profile, nil
}

// Get fetches the profile stored under (role, id).
func (s *ProfileService) Get(role model.Role, id string) (*model.UserProfile, error) {
	rec, ok := s.load().Partition(role).Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	profile := rec.Profile
	return &profile, nil
}

// Update applies mutate to the stored profile and persists the snapshot.
// Id and Role are restored afterwards; they are immutable.
func (s *ProfileService) Update(role model.Role, id string, mutate func(*model.UserProfile)) (*model.UserProfile, error) {
	snap := s.load()
	partition := snap.Partition(role)

	rec, ok := partition.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	mutate(&rec.Profile)
	rec.Profile.Id = id
	rec.Profile.Role = role
	partition.Set(id, rec)

	if err := s.save(snap); err != nil {
		return nil, err
	}
	profile := rec.Profile
	return &profile, nil
}

// Deposit registers one collected item for a USER profile: +50 points and
// +1 bottle in a single snapshot rewrite. Returns the updated profile and a
// receipt id for the audit trail.
func (s *ProfileService) Deposit(id string) (*model.UserProfile, string, error) {
	profile, err := s.Update(model.RoleUser, id, func(p *model.UserProfile) {
		p.Points += depositPoints
		p.Bottles += depositBottles
	})
	if err != nil {
		return nil, "", err
	}

	receipt := uuid.NewString()
	logger.Infof("deposit %s: profile %s now at %d points / %d bottles", receipt, id, profile.Points, profile.Bottles)
	return profile, receipt, nil
}

// AllOfRole returns every profile in the partition, in insertion order.
func (s *ProfileService) AllOfRole(role model.Role) []model.UserProfile {
	return s.load().Partition(role).Profiles()
}

package building

import (
	"errors"
	"strings"
	"time"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/quota"
)

// ErrNameRequired is returned when a building has no display name.
var ErrNameRequired = errors.New("building name is required")

// Building owns a stay quota and an optional banned plate list.
type Building struct {
	ID        string
	Name      string
	Code      string
	Quota     quota.Quota
	CreatedAt time.Time
	UpdatedAt time.Time

	// BannedSource is the persisted reference to the uploaded plate list.
	BannedSource *banned.Source

	banned *banned.Registry
}

// New validates name and returns a building with no quota.
func New(name, code string) (*Building, error) {
	b := &Building{Name: strings.TrimSpace(name), Code: strings.TrimSpace(code)}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the fields an operator must supply.
func (b *Building) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// SetQuota replaces the building's active quota.
func (b *Building) SetQuota(period quota.Period, count int) error {
	return b.Quota.Set(period, count)
}

// ResolveQuota returns the active (period, nights); nights 0 means unbounded.
func (b *Building) ResolveQuota() (quota.Period, int) {
	return b.Quota.Resolve()
}

// Registry returns the building's banned plate registry, creating an empty one on first use.
func (b *Building) Registry() *banned.Registry {
	if b.banned == nil {
		b.banned = banned.NewRegistry()
	}
	return b.banned
}

// AttachRegistry installs a registry loaded elsewhere.
func (b *Building) AttachRegistry(r *banned.Registry) {
	b.banned = r
}

// IsBanned reports whether plate is on this building's banned list.
func (b *Building) IsBanned(plate string) bool {
	return b.banned.IsBanned(plate)
}

// RegistryCurrent reports whether the attached registry was loaded from BannedSource.
func (b *Building) RegistryCurrent() bool {
	src, ok := b.banned.Source()
	if b.BannedSource == nil {
		return !ok || b.banned.Len() == 0
	}
	return ok && src.Ref == b.BannedSource.Ref
}

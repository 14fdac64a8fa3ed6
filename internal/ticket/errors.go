package ticket

import (
	"errors"
	"fmt"

	"github.com/abansal0486/parking-admin/internal/quota"
)

// Reason codes returned by Reason, stable across releases for the console.
const (
	ReasonInvalidInput    = "invalid_input"
	ReasonUnknownBuilding = "unknown_building"
	ReasonBannedPlate     = "banned_plate"
	ReasonQuotaExceeded   = "quota_exceeded"
	ReasonInvalidQuota    = "invalid_quota"
)

// InvalidInputError is a missing or malformed ticket field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnknownBuildingError means the referenced building could not be resolved.
type UnknownBuildingError struct {
	BuildingID string
}

func (e *UnknownBuildingError) Error() string {
	return fmt.Sprintf("unknown building %q", e.BuildingID)
}

// BannedPlateError is a policy rejection: the plate is on the building's banned list.
type BannedPlateError struct {
	Plate      string
	BuildingID string
}

func (e *BannedPlateError) Error() string {
	return fmt.Sprintf("plate %s is banned at building %s", e.Plate, e.BuildingID)
}

// QuotaExceededError carries the limit so the console can display it.
type QuotaExceededError struct {
	Requested int
	Limit     int
	Period    quota.Period
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%d nights requested, building allows %d (%s)", e.Requested, e.Limit, e.Period)
}

// Reason maps an engine error to its reason code, or "" for anything else.
func Reason(err error) string {
	var (
		invalid  *InvalidInputError
		unknown  *UnknownBuildingError
		bannedE  *BannedPlateError
		exceeded *QuotaExceededError
		badQuota *quota.InvalidQuotaError
	)
	switch {
	case errors.As(err, &bannedE):
		return ReasonBannedPlate
	case errors.As(err, &unknown):
		return ReasonUnknownBuilding
	case errors.As(err, &exceeded):
		return ReasonQuotaExceeded
	case errors.As(err, &invalid):
		return ReasonInvalidInput
	case errors.As(err, &badQuota):
		return ReasonInvalidQuota
	}
	return ""
}

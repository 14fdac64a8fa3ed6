package api

import (
	"time"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/quota"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

type buildingResponse struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Code   string       `json:"code,omitempty"`
	Period quota.Period `json:"period,omitempty"`
	quota.Fields
	BannedPlatesFile *banned.Source `json:"bannedPlatesFile,omitempty"`
	BannedPlateCount *int           `json:"bannedPlateCount,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func newBuildingResponse(b *building.Building) buildingResponse {
	resp := buildingResponse{
		ID:               b.ID,
		Name:             b.Name,
		Code:             b.Code,
		Fields:           b.Quota.Fields(),
		BannedPlatesFile: b.BannedSource,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.Quota.IsSet() {
		resp.Period, _ = b.ResolveQuota()
	}
	return resp
}

// withPlateCount adds the size of the loaded banned list.
func withPlateCount(resp buildingResponse, b *building.Building) buildingResponse {
	n := b.Registry().Len()
	resp.BannedPlateCount = &n
	return resp
}

type ticketResponse struct {
	ID           string       `json:"id,omitempty"`
	PlateNumber  string       `json:"plateNumber"`
	Email        string       `json:"email,omitempty"`
	UnitNumber   string       `json:"unitNumber"`
	BuildingID   string       `json:"buildingId"`
	BuildingName string       `json:"buildingName,omitempty"`
	Nights       int          `json:"nights"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      time.Time    `json:"endTime"`
	Status       ticket.State `json:"status"`
	Expired      bool         `json:"expired"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty"`
}

func newTicketResponse(t ticket.Ticket) ticketResponse {
	resp := ticketResponse{
		ID:           t.ID,
		PlateNumber:  t.PlateNumber,
		Email:        t.Email,
		UnitNumber:   t.UnitNumber,
		BuildingID:   t.BuildingID,
		BuildingName: t.BuildingName,
		Nights:       t.Nights,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		Status:       t.State,
		Expired:      t.State == ticket.StateExpired,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}

func mapPage[T, R any](p directory.Page[T], fn func(T) R) directory.Page[R] {
	out := make([]R, 0, len(p.Results))
	for _, item := range p.Results {
		out = append(out, fn(item))
	}
	return directory.Page[R]{Results: out, Total: p.Total, TotalPages: p.TotalPages, Page: p.Page, Limit: p.Limit}
}

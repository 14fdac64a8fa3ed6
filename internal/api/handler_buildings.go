package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/service"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

const maxBannedListBytes = 5 << 20

type buildingForm struct {
	Name              string `form:"name" json:"name"`
	Code              string `form:"code" json:"code"`
	Period            string `form:"period" json:"period"`
	Nights            *int   `form:"nights" json:"nights"`
	ClearBannedPlates bool   `form:"clearBannedPlates" json:"clearBannedPlates"`
}

type pageQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// bindBuildingForm reads a JSON or multipart building form. The banned list
// comes from the multipart "file" field.
func bindBuildingForm(c *gin.Context) (service.BuildingInput, error) {
	var form buildingForm
	if err := c.ShouldBind(&form); err != nil {
		return service.BuildingInput{}, &ticket.InvalidInputError{Field: "form", Reason: err.Error()}
	}
	in := service.BuildingInput{
		Name:              form.Name,
		Code:              form.Code,
		Period:            form.Period,
		Nights:            form.Nights,
		ClearBannedPlates: form.ClearBannedPlates,
	}

	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return in, nil
	}
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, &ticket.InvalidInputError{Field: "file", Reason: err.Error()}
	}
	if fh.Size > maxBannedListBytes {
		return in, &ticket.InvalidInputError{Field: "file", Reason: fmt.Sprintf("must be at most %d bytes", maxBannedListBytes)}
	}

	f, err := fh.Open()
	if err != nil {
		return in, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBannedListBytes))
	if err != nil {
		return in, fmt.Errorf("read uploaded file: %w", err)
	}
	in.BannedPlates = &service.Upload{FileName: fh.Filename, Data: data}
	return in, nil
}

// ListBuildings returns every building ordered by name.
func (h *Handler) ListBuildings(c *gin.Context) {
	buildings, err := h.svc.ListBuildings(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]buildingResponse, 0, len(buildings))
	for i := range buildings {
		out = append(out, newBuildingResponse(&buildings[i]))
	}
	c.JSON(http.StatusOK, out)
}

// ListBuildingsPage returns one page of buildings.
func (h *Handler) ListBuildingsPage(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	page, err := h.svc.ListBuildingsPage(c.Request.Context(), currentSession(c), q.Page, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(page, func(b building.Building) buildingResponse {
		return newBuildingResponse(&b)
	}))
}

// GetBuilding returns one building with its banned list size.
func (h *Handler) GetBuilding(c *gin.Context) {
	b, err := h.svc.GetBuilding(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withPlateCount(newBuildingResponse(b), b))
}

// CreateBuilding handles the building form.
func (h *Handler) CreateBuilding(c *gin.Context) {
	in, err := bindBuildingForm(c)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.svc.CreateBuilding(c.Request.Context(), currentSession(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withPlateCount(newBuildingResponse(b), b))
}

// UpdateBuilding handles the edit form.
func (h *Handler) UpdateBuilding(c *gin.Context) {
	in, err := bindBuildingForm(c)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.svc.UpdateBuilding(c.Request.Context(), currentSession(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withPlateCount(newBuildingResponse(b), b))
}

// DeleteBuilding removes a building.
func (h *Handler) DeleteBuilding(c *gin.Context) {
	if err := h.svc.DeleteBuilding(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearBannedPlates empties a building's banned list.
func (h *Handler) ClearBannedPlates(c *gin.Context) {
	b, err := h.svc.ClearBannedPlates(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withPlateCount(newBuildingResponse(b), b))
}

// CheckPlate answers whether ?plate= is banned at the building.
func (h *Handler) CheckPlate(c *gin.Context) {
	plate := banned.Normalize(c.Query("plate"))
	if plate == "" {
		writeError(c, &ticket.InvalidInputError{Field: "plate", Reason: "is required"})
		return
	}
	isBanned, err := h.svc.CheckPlate(c.Request.Context(), currentSession(c), c.Param("id"), plate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plate": plate, "banned": isBanned})
}

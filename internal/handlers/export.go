package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platewatch/internal/export"
	"platewatch/internal/models"
	"platewatch/internal/repository"
)

func (h HandlerSet) ExportCSV(c *gin.Context) {
	sightings, ok := h.exportSet(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename=license_plates_export.csv`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	if err := export.WriteCSV(c.Writer, sightings, includeNotes(c)); err != nil {
		h.log.Error().Err(err).Msg("csv export failed")
	}
}

func (h HandlerSet) ExportSeed(c *gin.Context) {
	sightings, ok := h.exportSet(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename=license_plates_seed.json`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	if err := export.WriteSeed(c.Writer, sightings, includeNotes(c)); err != nil {
		h.log.Error().Err(err).Msg("seed export failed")
	}
}

func (h HandlerSet) ExportZip(c *gin.Context) {
	sightings, ok := h.exportSet(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename=license_plates_export.zip`)
	c.Header("Content-Type", "application/zip")
	if err := export.WriteZip(c.Writer, sightings, h.images, includeNotes(c)); err != nil {
		h.log.Error().Err(err).Msg("zip export failed")
	}
}

func (h HandlerSet) exportSet(c *gin.Context) ([]models.Sighting, bool) {
	sightings, err := h.store.List(c.Request.Context(), repository.ListFilter{Sort: repository.SortDateDesc})
	if err != nil {
		h.log.Error().Err(err).Msg("list sightings for export failed")
		h.renderError(c, http.StatusInternalServerError)
		return nil, false
	}
	return sightings, true
}

func includeNotes(c *gin.Context) bool {
	return strings.ToLower(c.DefaultQuery("include_notes", "true")) == "true"
}

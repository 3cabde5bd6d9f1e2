package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"platewatch/internal/models"
	"platewatch/internal/repository"
	"platewatch/internal/service"
)

const (
	dateLayout     = "2006-01-02"
	formTimeLayout = "2006-01-02T15:04"
)

func (h HandlerSet) Index(c *gin.Context) {
	sortBy := c.DefaultQuery("sort_by", string(repository.SortDateDesc))
	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	filter := repository.ListFilter{Sort: repository.SortKey(sortBy)}

	if startDateStr != "" {
		if start, err := time.Parse(dateLayout, startDateStr); err == nil {
			filter.StartDate = &start
		} else {
			flash(c, "error", "Invalid start date format. Please use YYYY-MM-DD.")
		}
	}
	if endDateStr != "" {
		if end, err := time.Parse(dateLayout, endDateStr); err == nil {
			exclusive := end.AddDate(0, 0, 1)
			filter.EndDate = &exclusive
		} else {
			flash(c, "error", "Invalid end date format. Please use YYYY-MM-DD.")
		}
	}

	sightings, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list sightings failed")
		h.renderError(c, http.StatusInternalServerError)
		return
	}

	h.render(c, http.StatusOK, "index.html", gin.H{
		"Sightings": sightings,
		"SortBy":    sortBy,
		"StartDate": startDateStr,
		"EndDate":   endDateStr,
	})
}

func (h HandlerSet) ShowAdd(c *gin.Context) {
	h.render(c, http.StatusOK, "add_sighting.html", gin.H{"Form": service.SightingInput{}})
}

func (h HandlerSet) HandleAdd(c *gin.Context) {
	input := sightingInputFromForm(c)

	result, err := h.sightings.Create(c.Request.Context(), input, imageFromForm(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			flash(c, "error", err.Error())
			h.render(c, http.StatusBadRequest, "add_sighting.html", gin.H{"Form": input})
			return
		}
		h.log.Error().Err(err).Msg("create sighting failed")
		h.renderError(c, http.StatusInternalServerError)
		return
	}

	if result.ImageWarning != "" {
		flash(c, "warning", result.ImageWarning)
	}
	flash(c, "success", "Sighting added successfully!")
	redirectHome(c)
}

func (h HandlerSet) Search(c *gin.Context) {
	state := upperQuery(c, "state")
	plate := upperQuery(c, "plate")

	if state == "" && plate == "" {
		redirectHome(c)
		return
	}

	sightings, err := h.store.Search(c.Request.Context(), state, plate)
	if err != nil {
		h.log.Error().Err(err).Msg("search sightings failed")
		h.renderError(c, http.StatusInternalServerError)
		return
	}

	h.render(c, http.StatusOK, "search.html", gin.H{
		"Sightings": sightings,
		"State":     state,
		"Plate":     plate,
	})
}

func (h HandlerSet) ShowEdit(c *gin.Context) {
	sighting, ok := h.loadSighting(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "edit_sighting.html", gin.H{"Sighting": sighting})
}

func (h HandlerSet) HandleEdit(c *gin.Context) {
	sighting, ok := h.loadSighting(c)
	if !ok {
		return
	}

	warning, err := h.sightings.Update(c.Request.Context(), sighting.ID, service.UpdateInput{
		Fields:      sightingInputFromForm(c),
		RemoveImage: c.PostForm("remove_image") == "true",
		Image:       imageFromForm(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			flash(c, "error", err.Error())
			h.render(c, http.StatusBadRequest, "edit_sighting.html", gin.H{"Sighting": sighting})
			return
		}
		h.log.Error().Err(err).Int64("sighting_id", sighting.ID).Msg("update sighting failed")
		h.renderError(c, http.StatusInternalServerError)
		return
	}

	if warning != "" {
		flash(c, "warning", warning)
	}
	flash(c, "success", "Sighting updated successfully!")
	redirectHome(c)
}

func (h HandlerSet) HandleDelete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		flash(c, "error", "Sighting not found.")
		redirectHome(c)
		return
	}

	if err := h.sightings.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrSightingNotFound) {
			flash(c, "error", "Sighting not found.")
		} else {
			h.log.Error().Err(err).Int64("sighting_id", id).Msg("delete sighting failed")
			flash(c, "error", "Error deleting sighting.")
		}
		redirectHome(c)
		return
	}

	flash(c, "success", "Sighting deleted successfully.")
	redirectHome(c)
}

func (h HandlerSet) CarInfo(c *gin.Context) {
	info, err := h.sightings.CarInfo(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.log.Error().Err(err).Msg("car info lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h HandlerSet) loadSighting(c *gin.Context) (models.Sighting, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		flash(c, "error", "Sighting not found.")
		redirectHome(c)
		return models.Sighting{}, false
	}

	sighting, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSightingNotFound) {
			flash(c, "error", "Sighting not found.")
			redirectHome(c)
		} else {
			h.log.Error().Err(err).Int64("sighting_id", id).Msg("load sighting failed")
			h.renderError(c, http.StatusInternalServerError)
		}
		return models.Sighting{}, false
	}
	return sighting, true
}

func sightingInputFromForm(c *gin.Context) service.SightingInput {
	input := service.SightingInput{
		State:        c.PostForm("state"),
		LicensePlate: c.PostForm("license_plate"),
		CarMake:      c.PostForm("car_make"),
		CarModel:     c.PostForm("car_model"),
		Color:        c.PostForm("color"),
		Location:     c.PostForm("location"),
		Notes:        c.PostForm("notes"),
	}
	if raw := c.PostForm("sighting_time"); raw != "" {
		if ts, err := time.Parse(formTimeLayout, raw); err == nil {
			input.SightedAt = &ts
		}
	}
	return input
}

func imageFromForm(c *gin.Context) *service.ImageUpload {
	file, header, err := c.Request.FormFile("image")
	if err != nil || header == nil || header.Filename == "" {
		return nil
	}
	return &service.ImageUpload{Name: header.Filename, Content: file}
}

func upperQuery(c *gin.Context, key string) string {
	return strings.ToUpper(strings.TrimSpace(c.Query(key)))
}

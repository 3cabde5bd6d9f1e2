package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"platewatch/internal/service"
)

// ServeImage streams a stored photo. Filenames that would escape the store
// directory 404 like any other missing file.
func (h HandlerSet) ServeImage(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.images.Path(filename)
	if err != nil || !h.images.Exists(filename) {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}

func (h HandlerSet) ShowBulkUpload(c *gin.Context) {
	h.render(c, http.StatusOK, "bulk_upload.html", gin.H{})
}

const maxReportedErrors = 10

func (h HandlerSet) HandleBulkUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		flash(c, "error", "No files selected")
		c.Redirect(http.StatusSeeOther, "/bulk_upload")
		return
	}

	headers := form.File["images"]
	files := make([]service.RestoreFile, 0, len(headers))
	for _, header := range headers {
		if header.Filename == "" {
			continue
		}
		header := header
		files = append(files, service.RestoreFile{
			Name: header.Filename,
			Open: func() (io.ReadCloser, error) { return header.Open() },
		})
	}
	if len(files) == 0 {
		flash(c, "error", "No files selected")
		c.Redirect(http.StatusSeeOther, "/bulk_upload")
		return
	}

	report, err := h.restore.Restore(c.Request.Context(), files)
	if err != nil {
		h.log.Error().Err(err).Msg("bulk restore failed")
		h.renderError(c, http.StatusInternalServerError)
		return
	}

	if len(report.Bound) > 0 {
		flash(c, "success", fmt.Sprintf("Successfully uploaded %d image(s)", len(report.Bound)))
	}
	if len(report.Unresolved) > 0 {
		flash(c, "warning", fmt.Sprintf("%d file(s) failed to upload", len(report.Unresolved)))
		for i, problem := range report.Unresolved {
			if i >= maxReportedErrors {
				break
			}
			flash(c, "error", fmt.Sprintf("%s: %s", problem.Filename, problem.Reason))
		}
	}

	redirectHome(c)
}

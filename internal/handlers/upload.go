package handlers

import (
	"errors"
	"net/http"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	uploadField = "file"

	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
	msgInvalidFormat  = "Invalid file format"
	msgFileTooLarge   = "File too large"
	errClassify       = "failed to classify image"
)

// classifyUpload reads the "file" field and runs the prediction pipeline.
// It writes the error response itself and returns false when it did.
func (h *Handler) classifyUpload(c *gin.Context) (models.Prediction, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.badUpload(c, msgFileTooLarge, err)
		case h.emptyFileField(c):
			// browsers send an empty filename when nothing was picked
			h.badUpload(c, msgNoSelectedFile, err)
		default:
			h.badUpload(c, msgNoFilePart, err)
		}
		return models.Prediction{}, false
	}

	f, err := fh.Open()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errClassify, "predict_open_upload_failed", err)
		return models.Prediction{}, false
	}
	defer f.Close()

	pred, err := h.services.Predict(c.Request.Context(), fh.Filename, f)
	switch {
	case err == nil:
		return pred, true
	case errors.Is(err, service.ErrEmptyFilename):
		h.badUpload(c, msgNoSelectedFile, err)
	case errors.Is(err, service.ErrInvalidFileFormat):
		h.badUpload(c, msgInvalidFormat, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errClassify, "predict_failed", err, "filename", fh.Filename)
	}
	return models.Prediction{}, false
}

func (h *Handler) emptyFileField(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[uploadField]
	return ok
}

func (h *Handler) badUpload(c *gin.Context, msg string, err error) {
	if h.log != nil {
		h.log.Infow("predict_rejected", "reason", msg, "err", err)
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

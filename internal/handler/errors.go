package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vehicledetect/internal/dto"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/session"
)

const unavailableMessage = "The model could not be loaded. The application cannot work."

// classify maps a service error to a status, an API code and the message
// shown to the user.
func classify(err error) (int, string, string) {
	var decodeErr *ai.DecodeError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, ai.ErrModelUnavailable):
		return http.StatusServiceUnavailable, dto.CodeModelUnavailable, unavailableMessage
	case errors.Is(err, ai.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, dto.CodeUnsupportedFormat,
			"Unsupported file type. Allowed types: " + strings.Join(ai.AllowedExtensions, ", ") + "."
	case errors.Is(err, ai.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, dto.CodeImageTooLarge, "The image dimensions are too large."
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity, dto.CodeDecodeFailed, "The uploaded file could not be read as an image."
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, dto.CodeInvalidRequest, "The uploaded file is too large."
	case errors.Is(err, session.ErrNoUpload):
		return http.StatusBadRequest, dto.CodeInvalidRequest, "Upload an image before running detection."
	case errors.Is(err, session.ErrUploadReplaced):
		return http.StatusConflict, dto.CodeInvalidRequest, "The image was replaced while detection was running. Run detection again."
	default:
		return http.StatusInternalServerError, dto.CodeDetectionFailed, "Detection failed."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code, message := classify(err)
	writeJSON(w, status, dto.ErrorResponse{Code: code, Message: message, Details: err.Error()})
}

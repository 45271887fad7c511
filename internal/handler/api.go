package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"vehicledetect/internal/config"
	"vehicledetect/internal/dto"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/service"
)

var errEmptyBody = errors.New("request body is empty")

// DetectAPIHandler accepts a multipart "file" field or a raw image body and
// answers with the detections and the annotated image.
func DetectAPIHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)

		filename, data, err := readImagePayload(r)
		if err != nil {
			logger.Warning("Invalid detection request: %v", err)
			status, code, message := classify(err)
			if status == http.StatusInternalServerError {
				status, code, message = http.StatusBadRequest, dto.CodeInvalidRequest, "Invalid request."
			}
			writeJSON(w, status, dto.ErrorResponse{Code: code, Message: message, Details: err.Error()})
			return
		}

		res, err := manager.Analyze(r.Context(), filename, data)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, dto.DetectResponse{
			Width:          res.Width,
			Height:         res.Height,
			Detections:     dto.NewDetectionResults(res.Detections),
			Lines:          res.Lines,
			AnnotatedImage: res.AnnotatedURI,
			DurationMs:     res.Duration.Milliseconds(),
		})
	}
}

func readImagePayload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("error reading form file: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("error reading form file: %w", err)
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("error reading body: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errEmptyBody
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		switch mediaType {
		case "image/png":
			filename = "upload.png"
		case "image/jpeg", "image/jpg":
			filename = "upload.jpg"
		default:
			filename = "upload"
		}
	}
	return filename, data, nil
}

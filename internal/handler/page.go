package handler

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"vehicledetect/internal/config"
	"vehicledetect/internal/dto"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/service"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/session"
	"vehicledetect/internal/web"
)

const PageTitle = "Vehicle Detection with YOLO"

// IndexHandler renders the page for the current session state.
func IndexHandler(manager *service.Manager, cfg *config.Config, page *web.Page, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(w, r, manager, cfg.SessionTTL)
		renderPage(w, page, manager.Availability(), sess, http.StatusOK, logger)
	}
}

// UploadHandler stores the selected file; a request without a file leaves
// the page where it was.
func UploadHandler(manager *service.Manager, cfg *config.Config, page *web.Page, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(w, r, manager, cfg.SessionTTL)
		avail := manager.Availability()
		if !avail.Ready() {
			renderPage(w, page, avail, sess, http.StatusServiceUnavailable, logger)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err != nil {
			logger.Warning("Invalid upload request: %v", err)
			renderError(w, page, avail, sess, err, logger)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Warning("Error reading upload: %v", err)
			renderError(w, page, avail, sess, err, logger)
			return
		}

		if err := manager.Upload(sess.ID, header.Filename, data); err != nil {
			renderError(w, page, avail, manager.Session(sess.ID), err, logger)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// DetectHandler runs the model on the session's image and shows the result.
func DetectHandler(manager *service.Manager, cfg *config.Config, page *web.Page, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(w, r, manager, cfg.SessionTTL)

		if _, err := manager.Detect(r.Context(), sess.ID); err != nil {
			renderError(w, page, manager.Availability(), manager.Session(sess.ID), err, logger)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func renderError(w http.ResponseWriter, page *web.Page, avail ai.Availability, sess session.Session, err error, logger *logger.Logger) {
	if service.IsUserError(err) {
		logger.Warning("Request rejected: %v", err)
	} else {
		logger.Error("Request failed: %v", err)
	}

	status, _, message := classify(err)
	renderPage(w, page, avail, sess, status, logger, dto.Banner{Kind: "error", Lines: []string{message}})
}

func renderPage(w http.ResponseWriter, page *web.Page, avail ai.Availability, sess session.Session, status int, logger *logger.Logger, extra ...dto.Banner) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := page.Render(w, buildPageData(avail, sess, extra)); err != nil {
		logger.Error("Error rendering page: %v", err)
	}
}

// buildPageData turns the loader outcome and the session into what the
// template shows. Without a model only the banners are shown.
func buildPageData(avail ai.Availability, sess session.Session, extra []dto.Banner) dto.PageData {
	state := sess.State(avail.Ready())
	data := dto.PageData{
		Title:      PageTitle,
		State:      state.String(),
		Banners:    availabilityBanners(avail),
		ModelReady: avail.Ready(),
		Accept:     ai.AcceptAttribute(),
	}
	if state == session.Unavailable {
		return data
	}

	data.Banners = append(data.Banners, extra...)
	if sess.Upload == nil {
		return data
	}

	data.Filename = sess.Upload.Filename
	data.OriginalURI = template.URL(sess.Upload.PreviewURI)
	data.ShowDetect = true
	if sess.Outcome != nil {
		data.Result = &dto.PageResult{
			AnnotatedURI: template.URL(sess.Outcome.AnnotatedURI),
			Lines:        sess.Outcome.Lines,
		}
	}
	return data
}

func availabilityBanners(avail ai.Availability) []dto.Banner {
	if avail.Ready() {
		return []dto.Banner{{Kind: "success", Lines: []string{"Model loaded successfully from: " + avail.Path}}}
	}

	var notFound *ai.NotFoundError
	var loadErr *ai.LoadError
	var cause dto.Banner
	switch {
	case errors.As(avail.Err, &notFound):
		cause = dto.Banner{Kind: "error", Lines: []string{
			"ERROR: The model file was not found at: " + notFound.Path,
			"Please check the MODEL_PATH setting.",
		}}
	case errors.As(avail.Err, &loadErr):
		cause = dto.Banner{Kind: "error", Lines: []string{fmt.Sprintf("Error while loading the model: %v", loadErr.Err)}}
	default:
		cause = dto.Banner{Kind: "error", Lines: []string{fmt.Sprintf("Error while loading the model: %v", avail.Err)}}
	}

	return []dto.Banner{cause, {Kind: "warning", Lines: []string{unavailableMessage}}}
}

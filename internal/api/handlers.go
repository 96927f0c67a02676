package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/studyloop/lecture-gateway/internal/lecture"
	"github.com/studyloop/lecture-gateway/internal/observability"
	"github.com/studyloop/lecture-gateway/internal/playback"
)

// maxDocumentBytes caps uploaded lecture source documents.
const maxDocumentBytes = 20 << 20

// Handler serves the lecture and speech endpoints.
type Handler struct {
	generator  lecture.Generator
	store      lecture.Store
	controller *playback.Controller
	logger     zerolog.Logger
}

func NewHandler(gen lecture.Generator, store lecture.Store, controller *playback.Controller) *Handler {
	return &Handler{
		generator:  gen,
		store:      store,
		controller: controller,
		logger:     observability.WithComponent("api"),
	}
}

type createLectureRequest struct {
	Text string `json:"text"`
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	Started bool   `json:"started"`
	State   string `json:"state"`
}

// CreateLecture handles POST /v1/lectures. The source material arrives either
// as JSON {"text": ...} or as a multipart upload with a "document" part.
func (h *Handler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCreateRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Generate records the lecture request metrics itself.
	lec, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("lecture generation failed")
		respondError(w, http.StatusBadGateway, "lecture generation failed")
		return
	}

	if err := h.store.Put(r.Context(), lec); err != nil {
		h.logger.Error().Err(err).Str("lecture_id", lec.ID).Msg("storing lecture failed")
		respondError(w, http.StatusInternalServerError, "failed to store lecture")
		return
	}

	h.logger.Info().
		Str("lecture_id", lec.ID).
		Int("sections", len(lec.Sections)).
		Msg("lecture created")
	respondJSON(w, http.StatusCreated, lec)
}

func (h *Handler) parseCreateRequest(r *http.Request) (lecture.GenerateRequest, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
			return lecture.GenerateRequest{}, errors.New("invalid multipart form")
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			return lecture.GenerateRequest{}, errors.New("missing document part")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes))
		if err != nil {
			return lecture.GenerateRequest{}, errors.New("failed to read document")
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return lecture.GenerateRequest{Document: data, MimeType: mimeType}, nil
	}

	var req createLectureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return lecture.GenerateRequest{}, errors.New("invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return lecture.GenerateRequest{}, errors.New("text is required")
	}
	return lecture.GenerateRequest{Text: req.Text}, nil
}

// GetLecture handles GET /v1/lectures/{id}.
func (h *Handler) GetLecture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, lecture.ErrNotFound) {
			respondError(w, http.StatusNotFound, "lecture not found")
			return
		}
		h.logger.Error().Err(err).Str("lecture_id", id).Msg("loading lecture failed")
		respondError(w, http.StatusInternalServerError, "failed to load lecture")
		return
	}
	respondJSON(w, http.StatusOK, lec)
}

// SpeakLecture handles POST /v1/lectures/{id}/speak: reads the stored
// lecture's overview aloud. Always answers 202; the started flag says
// whether a session began or an earlier one is still running.
func (h *Handler) SpeakLecture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, lecture.ErrNotFound) {
			respondError(w, http.StatusNotFound, "lecture not found")
			return
		}
		h.logger.Error().Err(err).Str("lecture_id", id).Msg("loading lecture failed")
		respondError(w, http.StatusInternalServerError, "failed to load lecture")
		return
	}

	started := h.controller.Speak(lec.Overview.Primary)
	respondJSON(w, http.StatusAccepted, speakResponse{
		Started: started,
		State:   h.controller.State().String(),
	})
}

// Speak handles POST /v1/speak: reads arbitrary text aloud. Blank text is
// accepted and resolves through the normal pipeline.
func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	started := h.controller.Speak(req.Text)
	respondJSON(w, http.StatusAccepted, speakResponse{
		Started: started,
		State:   h.controller.State().String(),
	})
}

// PlaybackState handles GET /v1/playback.
func (h *Handler) PlaybackState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"state": h.controller.State().String(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

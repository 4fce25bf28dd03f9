package handlers

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"iris/internal/apperr"
	"iris/internal/middleware"
	"iris/internal/service"
)

// IdeaHandler serves idea submission and idea reads
type IdeaHandler struct {
	ideas *service.IdeaService
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(ideas *service.IdeaService) *IdeaHandler {
	return &IdeaHandler{ideas: ideas}
}

// Submit submits an idea against a live challenge
// @Summary Submit idea
// @Description Accepts JSON, or multipart/form-data with the same field names plus "documents" files.
// @Description Unknown co-ideator emails are skipped. Awards the configured reward points.
// @Tags Ideas
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Param request body service.SubmitIdeaInput true "Idea"
// @Success 201 {object} models.IdeaWithDetails
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Ideation not open"
// @Router /challenges/{id}/ideas [post]
func (h *IdeaHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var (
		in      service.SubmitIdeaInput
		uploads []service.Upload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var closers []io.Closer
		defer func() {
			for _, c := range closers {
				if err := c.Close(); err != nil {
					slog.Debug("Failed to close upload", "error", err)
				}
			}
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		var err error
		in, uploads, closers, err = parseIdeaForm(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
	} else if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	idea, err := h.ideas.SubmitIdea(r.Context(), actor, r.PathValue("id"), in, uploads)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, idea)
}

func parseIdeaForm(r *http.Request) (service.SubmitIdeaInput, []service.Upload, []io.Closer, error) {
	var in service.SubmitIdeaInput
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return in, nil, nil, apperr.Validation(ErrMsgInvalidUpload + ": " + err.Error())
	}
	form := r.MultipartForm

	in.Title = r.FormValue("title")
	in.ProblemStatement = r.FormValue("problem_statement")
	in.ProposedSolution = r.FormValue("proposed_solution")
	in.ValueProposition = r.FormValue("value_proposition")
	in.RiskAssessment = r.FormValue("risk_assessment")
	in.InnovationType = r.FormValue("innovation_type")
	in.SharingScope = r.FormValue("sharing_scope")
	if v := r.FormValue("is_confidential"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return in, nil, nil, apperr.Validation("is_confidential must be a boolean")
		}
		in.IsConfidential = b
	}
	for _, v := range form.Value["co_ideator_emails"] {
		for _, email := range strings.Split(v, ",") {
			if email = strings.TrimSpace(email); email != "" {
				in.CoIdeatorEmails = append(in.CoIdeatorEmails, email)
			}
		}
	}

	var (
		uploads []service.Upload
		closers []io.Closer
	)
	for _, fh := range form.File["documents"] {
		f, err := fh.Open()
		if err != nil {
			return in, nil, closers, apperr.Validation(ErrMsgInvalidUpload + ": " + fh.Filename)
		}
		closers = append(closers, f)
		uploads = append(uploads, uploadFrom(fh, f))
	}
	return in, uploads, closers, nil
}

func uploadFrom(fh *multipart.FileHeader, f multipart.File) service.Upload {
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return service.Upload{
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}
}

// List lists ideas, optionally those submitted or co-authored by a user
// @Summary List ideas
// @Tags Ideas
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Submitter or co-ideator"
// @Success 200 {array} models.Idea
// @Router /ideas [get]
func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	ideas, err := h.ideas.ListIdeas(r.Context(), actor, r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, ideas)
}

// Get returns one idea with its detail, co-ideators and documents
// @Summary Get idea
// @Description Confidential ideas are readable by the submitter, co-ideators, the challenge creator and its mentors
// @Tags Ideas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Idea ID"
// @Success 200 {object} models.IdeaWithDetails
// @Failure 403 {object} map[string]string "Confidential"
// @Failure 404 {object} map[string]string "Not found"
// @Router /ideas/{id} [get]
func (h *IdeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	idea, err := h.ideas.GetIdea(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, idea)
}

// Mine returns the caller's submitted and shared ideas with the points balance
// @Summary My ideas
// @Tags Ideas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MyIdeas
// @Router /ideas/mine [get]
func (h *IdeaHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	mine, err := h.ideas.MyIdeas(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, mine)
}

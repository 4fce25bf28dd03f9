package handlers

import (
	"net/http"

	"iris/internal/middleware"
	"iris/internal/service"
)

// GrassrootHandler serves the grassroot idea approval workflow
type GrassrootHandler struct {
	grassroots *service.GrassrootService
}

// NewGrassrootHandler creates a new grassroot handler
func NewGrassrootHandler(grassroots *service.GrassrootService) *GrassrootHandler {
	return &GrassrootHandler{grassroots: grassroots}
}

// Submit files a grassroot idea with the ideator's reporting manager
// @Summary Submit grassroot idea
// @Tags Grassroot
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmitGrassrootInput true "Grassroot idea"
// @Success 201 {object} models.GrassrootIdea
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /grassroot-ideas [post]
func (h *GrassrootHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var in service.SubmitGrassrootInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	idea, err := h.grassroots.Submit(r.Context(), actor, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, idea)
}

// List lists grassroot ideas of an ideator (default: the caller)
// @Summary List grassroot ideas
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Ideator ID"
// @Success 200 {array} models.GrassrootIdea
// @Router /grassroot-ideas [get]
func (h *GrassrootHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	ideas, err := h.grassroots.List(r.Context(), actor, r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, ideas)
}

// Get returns one grassroot idea with its evaluations
// @Summary Get grassroot idea
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grassroot idea ID"
// @Success 200 {object} models.GrassrootIdeaWithDetails
// @Failure 403 {object} map[string]string "Not visible"
// @Failure 404 {object} map[string]string "Not found"
// @Router /grassroot-ideas/{id} [get]
func (h *GrassrootHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	idea, err := h.grassroots.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, idea)
}

// RMDashboard lists ideas waiting for the caller as reporting manager
// @Summary RM dashboard
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.GrassrootIdea
// @Failure 403 {object} map[string]string "Not a reporting manager"
// @Router /grassroot-ideas/rm-dashboard [get]
func (h *GrassrootHandler) RMDashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	ideas, err := h.grassroots.RMDashboard(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, ideas)
}

// IBUDashboard lists RM-approved ideas waiting for any IBU head
// @Summary IBU dashboard
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.GrassrootIdea
// @Failure 403 {object} map[string]string "Not an IBU head"
// @Router /grassroot-ideas/ibu-dashboard [get]
func (h *GrassrootHandler) IBUDashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	ideas, err := h.grassroots.IBUDashboard(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, ideas)
}

// Evaluate records an approve/rework/reject decision
// @Summary Evaluate grassroot idea
// @Description The reporting manager acts on SUBMITTED_RM, any IBU head on APPROVED_RM. The first IBU decision wins.
// @Tags Grassroot
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grassroot idea ID"
// @Param request body service.EvaluateInput true "Decision"
// @Success 201 {object} models.GrassrootEvaluation
// @Failure 400 {object} map[string]string "Unknown decision"
// @Failure 403 {object} map[string]string "Not the evaluator for this stage"
// @Failure 409 {object} map[string]string "Not awaiting evaluation"
// @Router /grassroot-ideas/{id}/evaluate [post]
func (h *GrassrootHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var in service.EvaluateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	eval, err := h.grassroots.Evaluate(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, eval)
}

// CustomerInput completes an IBU-approved idea
// @Summary Submit customer input
// @Tags Grassroot
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grassroot idea ID"
// @Param request body service.CustomerInputRequest true "Customer input"
// @Success 200 {object} models.GrassrootIdea
// @Failure 403 {object} map[string]string "Not an IBU head"
// @Failure 409 {object} map[string]string "Not IBU-approved"
// @Router /grassroot-ideas/{id}/customer-input [post]
func (h *GrassrootHandler) CustomerInput(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var in service.CustomerInputRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	idea, err := h.grassroots.SubmitCustomerInput(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, idea)
}

// Categories lists improvement categories
// @Summary Improvement categories
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ImprovementCategory
// @Router /improvement-categories [get]
func (h *GrassrootHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.grassroots.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cats)
}

// Subcategories lists the subcategories of one category
// @Summary Improvement subcategories
// @Tags Grassroot
// @Produce json
// @Security BearerAuth
// @Param category_id query string true "Category ID"
// @Success 200 {array} models.ImprovementSubCategory
// @Failure 400 {object} map[string]string "Missing category_id"
// @Router /improvement-subcategories [get]
func (h *GrassrootHandler) Subcategories(w http.ResponseWriter, r *http.Request) {
	subs, err := h.grassroots.Subcategories(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, subs)
}

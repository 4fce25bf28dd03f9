package handlers

import (
	"net/http"

	"iris/internal/middleware"
	"iris/internal/models"
	"iris/internal/service"
)

// ChallengeHandler serves the challenge publication workflow
type ChallengeHandler struct {
	challenges *service.ChallengeService
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challenges *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// AddMentorRequest names the mentor to add by email
type AddMentorRequest struct {
	Email string `json:"email"`
}

// List returns the challenges visible to the caller
// @Summary List challenges
// @Description Mentors see challenges they sit on, owners their own plus live ones, everyone else live ones
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param filter query string false "Status bucket" Enums(active, draft, past, all)
// @Param q query string false "Free-text query over title and keywords"
// @Success 200 {array} models.Challenge
// @Failure 400 {object} map[string]string "Unknown filter"
// @Router /challenges [get]
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	q := r.URL.Query()
	list, err := h.challenges.ListChallenges(r.Context(), actor, q.Get("filter"), q.Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, list)
}

// Featured returns the featured challenge
// @Summary Featured challenge
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Challenge
// @Failure 404 {object} map[string]string "No featured challenge"
// @Router /challenges/featured [get]
func (h *ChallengeHandler) Featured(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	c, err := h.challenges.Featured(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, c)
}

// Suggestions returns title completions
// @Summary Challenge title suggestions
// @Description Up to five titles for queries of at least two characters
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param q query string true "Query prefix"
// @Success 200 {array} string
// @Router /challenges/suggestions [get]
func (h *ChallengeHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	titles, err := h.challenges.Suggestions(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, titles)
}

// Create creates a draft challenge, optionally publishing it
// @Summary Create challenge
// @Description Creates the challenge with review parameters, panels and mentors in one transaction
// @Tags Challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateChallengeInput true "Challenge"
// @Success 201 {object} models.Challenge
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Not a challenge owner"
// @Failure 409 {object} map[string]string "Panel cap or publication rule violated"
// @Router /challenges [post]
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var in service.CreateChallengeInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.challenges.CreateDraftChallenge(r.Context(), actor, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, c)
}

// Get returns one challenge with panels, mentors and review parameters
// @Summary Get challenge
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.ChallengeWithDetails
// @Failure 403 {object} map[string]string "Not visible"
// @Failure 404 {object} map[string]string "Not found"
// @Router /challenges/{id} [get]
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	c, err := h.challenges.GetChallenge(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, c)
}

// AddPanel adds a review panel to a round
// @Summary Add panel
// @Description Round 1 holds at most 3 panels, round 2 at most 2
// @Tags Challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Param request body service.PanelInput true "Panel"
// @Success 201 {object} models.ChallengePanel
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 409 {object} map[string]string "Panel cap reached"
// @Router /challenges/{id}/panels [post]
func (h *ChallengeHandler) AddPanel(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var in service.PanelInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	panel, err := h.challenges.AddPanel(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, panel)
}

// DeletePanel removes a panel and its mentor links
// @Summary Delete panel
// @Tags Challenges
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Param panelId path string true "Panel ID"
// @Success 204
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Not found"
// @Router /challenges/{id}/panels/{panelId} [delete]
func (h *ChallengeHandler) DeletePanel(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	if err := h.challenges.DeletePanel(r.Context(), actor, r.PathValue("id"), r.PathValue("panelId")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMentor assigns a mentor to a panel by email
// @Summary Add mentor
// @Description Adding an existing mentor again reports added=false
// @Tags Challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Param panelId path string true "Panel ID"
// @Param request body AddMentorRequest true "Mentor email"
// @Success 200 {object} service.AddMentorResult "Already present"
// @Success 201 {object} service.AddMentorResult "Added"
// @Failure 404 {object} map[string]string "User not found"
// @Router /challenges/{id}/panels/{panelId}/mentors [post]
func (h *ChallengeHandler) AddMentor(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	var req AddMentorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.challenges.AddMentor(r.Context(), actor, r.PathValue("id"), r.PathValue("panelId"), req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusCreated
	if !res.Added {
		status = http.StatusOK
	}
	JSONResponse(w, status, res)
}

// RemoveMentor unassigns a mentor from a panel
// @Summary Remove mentor
// @Tags Challenges
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Param panelId path string true "Panel ID"
// @Param mentorId path string true "Mentor user ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Router /challenges/{id}/panels/{panelId}/mentors/{mentorId} [delete]
func (h *ChallengeHandler) RemoveMentor(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	err := h.challenges.RemoveMentor(r.Context(), actor, r.PathValue("id"), r.PathValue("panelId"), r.PathValue("mentorId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lifecycleAction func(s *service.ChallengeService, r *http.Request, actor *models.User, id string) (*models.Challenge, error)

func (h *ChallengeHandler) lifecycle(action lifecycleAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.GetActor(r)
		c, err := action(h.challenges, r, actor, r.PathValue("id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		JSONResponse(w, http.StatusOK, c)
	}
}

// Publish promotes a draft to live
// @Summary Publish challenge
// @Description Requires two round-1 panels, one round-2 panel and a mentor on every panel
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.Challenge
// @Failure 403 {object} map[string]string "Not the creator"
// @Failure 409 {object} map[string]string "Panels incomplete"
// @Router /challenges/{id}/publish [post]
func (h *ChallengeHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(s *service.ChallengeService, r *http.Request, actor *models.User, id string) (*models.Challenge, error) {
		return s.PromoteToLive(r.Context(), actor, id)
	})(w, r)
}

// Complete closes a live challenge
// @Summary Complete challenge
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.Challenge
// @Failure 409 {object} map[string]string "Not live"
// @Router /challenges/{id}/complete [post]
func (h *ChallengeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(s *service.ChallengeService, r *http.Request, actor *models.User, id string) (*models.Challenge, error) {
		return s.CompleteChallenge(r.Context(), actor, id)
	})(w, r)
}

// Archive archives a challenge from any status
// @Summary Archive challenge
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.Challenge
// @Failure 409 {object} map[string]string "Already archived"
// @Router /challenges/{id}/archive [post]
func (h *ChallengeHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(s *service.ChallengeService, r *http.Request, actor *models.User, id string) (*models.Challenge, error) {
		return s.ArchiveChallenge(r.Context(), actor, id)
	})(w, r)
}

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"polltree/internal/domain/question"
)

func (h *Handler) mountAdmin(r chi.Router) {
	r.Get("/questions", h.adminListQuestions)
	r.Get("/questions/{id}", h.handleGetQuestion)
	r.Patch("/questions/{id}", h.adminUpdateQuestion)
	r.Delete("/questions/{id}", h.adminDeleteQuestion)

	r.Get("/choices", h.adminListChoices)
	r.Get("/choices/{id}", h.adminGetChoice)
	r.Delete("/choices/{id}", h.adminDeleteChoice)

	r.Get("/followups", h.adminListFollowUps)
	r.Get("/followups/{id}", h.handleGetFollowUp)
	r.Delete("/followups/{id}", h.adminDeleteFollowUp)

	r.Get("/followup-choices", h.adminListFollowUpChoices)
	r.Get("/followup-choices/{id}", h.adminGetFollowUpChoice)
	r.Delete("/followup-choices/{id}", h.adminDeleteFollowUpChoice)

	r.Get("/users", h.handleListUsers)
	r.Patch("/users/{id}/role", h.handleUpdateUserRole)
	r.Patch("/users/{id}/deactivate", h.handleDeactivateUser)
}

// @Summary     List every question
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       limit   query     int  false  "Page size"
// @Param       offset  query     int  false  "Offset"
// @Success     200     {array}   question.Question
// @Failure     403     {object}  apperr.AppError  "forbidden"
// @Router      /admin/questions [get]
func (h *Handler) adminListQuestions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	qs, err := h.questionSvc.AdminList(r.Context(), limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) adminUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	var in question.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, err)
		return
	}
	q, err := h.questionSvc.AdminUpdate(r.Context(), id, in)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) adminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.adminDelete(w, r, h.questionSvc.AdminDelete)
}

func (h *Handler) adminListChoices(w http.ResponseWriter, r *http.Request) {
	questionID, err := optionalID(r, "question_id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	limit, offset := parsePage(r)
	cs, err := h.questionSvc.AdminListChoices(r.Context(), questionID, limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) adminGetChoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	c, err := h.questionSvc.AdminGetChoice(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) adminDeleteChoice(w http.ResponseWriter, r *http.Request) {
	h.adminDelete(w, r, h.questionSvc.AdminDeleteChoice)
}

func (h *Handler) adminListFollowUps(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	fs, err := h.followUpSvc.AdminList(r.Context(), limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (h *Handler) adminDeleteFollowUp(w http.ResponseWriter, r *http.Request) {
	h.adminDelete(w, r, h.followUpSvc.AdminDelete)
}

func (h *Handler) adminListFollowUpChoices(w http.ResponseWriter, r *http.Request) {
	followUpID, err := optionalID(r, "follow_up_id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	limit, offset := parsePage(r)
	cs, err := h.followUpSvc.AdminListChoices(r.Context(), followUpID, limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) adminGetFollowUpChoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	c, err := h.followUpSvc.AdminGetChoice(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) adminDeleteFollowUpChoice(w http.ResponseWriter, r *http.Request) {
	h.adminDelete(w, r, h.followUpSvc.AdminDeleteChoice)
}

func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id int64) error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"net/http"

	"polltree/internal/domain/followup"
	"polltree/internal/worker"
)

type followUpRequest struct {
	Content string   `json:"content"`
	Choices []string `json:"choices"`
}

type createFollowUpFunc func(r *http.Request, authorID, parentID int64, req followUpRequest) (*followup.Detail, error)

// @Summary     Branch a follow-up off a question
// @Tags        followups
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64            true  "Question ID"
// @Param       request  body      followUpRequest  true  "Follow-up"
// @Success     201      {object}  followup.Detail
// @Failure     400      {object}  apperr.AppError  "validation error"
// @Failure     404      {object}  apperr.AppError  "question not found"
// @Router      /questions/{id}/branches [post]
func (h *Handler) handleBranch(w http.ResponseWriter, r *http.Request) {
	h.createFollowUp(w, r, worker.KindBranchCreated, func(r *http.Request, authorID, parentID int64, req followUpRequest) (*followup.Detail, error) {
		return h.followUpSvc.Branch(r.Context(), authorID, parentID, req.Content, req.Choices)
	})
}

// @Summary     Follow a choice into a follow-up
// @Tags        followups
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64            true  "Choice ID"
// @Param       request  body      followUpRequest  true  "Follow-up"
// @Success     201      {object}  followup.Detail
// @Failure     400      {object}  apperr.AppError  "validation error"
// @Failure     404      {object}  apperr.AppError  "choice not found"
// @Router      /choices/{id}/paths [post]
func (h *Handler) handlePath(w http.ResponseWriter, r *http.Request) {
	h.createFollowUp(w, r, worker.KindPathCreated, func(r *http.Request, authorID, parentID int64, req followUpRequest) (*followup.Detail, error) {
		return h.followUpSvc.Path(r.Context(), authorID, parentID, req.Content, req.Choices)
	})
}

// @Summary     Reply to a follow-up
// @Tags        followups
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64            true  "Parent follow-up ID"
// @Param       request  body      followUpRequest  true  "Follow-up"
// @Success     201      {object}  followup.Detail
// @Router      /followups/{id}/replies [post]
func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	h.createFollowUp(w, r, worker.KindReplyCreated, func(r *http.Request, authorID, parentID int64, req followUpRequest) (*followup.Detail, error) {
		return h.followUpSvc.Reply(r.Context(), authorID, parentID, req.Content, req.Choices)
	})
}

func (h *Handler) createFollowUp(w http.ResponseWriter, r *http.Request, kind string, create createFollowUpFunc) {
	parentID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	var req followUpRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	authorID := userIDFromCtx(r)
	d, err := create(r, authorID, parentID, req)
	if err != nil {
		errorResponse(w, err)
		return
	}

	ev := worker.NewEvent(kind)
	ev.FollowUpID = d.ID
	ev.UserID = authorID
	switch d.Parent.Kind {
	case followup.ParentQuestion:
		ev.QuestionID = d.Parent.ID
	case followup.ParentChoice:
		ev.ChoiceID = d.Parent.ID
	}
	h.emit(ev)

	w.Header().Set("Location", followUpPath(d.ID))
	writeJSON(w, http.StatusCreated, d)
}

// @Summary     Follow-up with its choices and replies
// @Tags        followups
// @Produce     json
// @Param       id   path      int64  true  "Follow-up ID"
// @Success     200  {object}  followup.Detail
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /followups/{id} [get]
func (h *Handler) handleGetFollowUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	d, err := h.followUpSvc.Get(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteFollowUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	if err := h.followUpSvc.Delete(r.Context(), id, userIDFromCtx(r)); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

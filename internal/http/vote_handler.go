package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"polltree/internal/domain/followup"
	"polltree/internal/domain/question"
	"polltree/internal/platform/apperr"
	"polltree/internal/worker"
)

type voteRequest struct {
	ChoiceID int64 `json:"choice_id"`
}

// noChoiceResponse re-renders the voted-on node with the error message.
type noChoiceResponse struct {
	Error    string           `json:"error"`
	Message  string           `json:"message"`
	Question *question.Detail `json:"question,omitempty"`
	FollowUp *followup.Detail `json:"follow_up,omitempty"`
}

// readChoiceID accepts a JSON body or a "choice" form field. A missing
// selection is reported as zero.
func readChoiceID(r *http.Request) (int64, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data" {
		raw := r.FormValue("choice")
		if raw == "" {
			return 0, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, apperr.BadRequest("invalid_input", "invalid choice", err)
		}
		return id, nil
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return 0, apperr.BadRequest("invalid_input", "invalid body", err)
	}
	return req.ChoiceID, nil
}

// @Summary     Vote for a choice
// @Description Answers 303 See Other pointing at the first follow-up of the
// @Description question, or at its results when it has none.
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64        true  "Question ID"
// @Param       request  body      voteRequest  true  "Vote payload"
// @Success     303      {object}  question.VoteOutcome
// @Failure     400      {object}  noChoiceResponse  "no choice selected"
// @Failure     401      {object}  apperr.AppError   "unauthorized"
// @Failure     404      {object}  apperr.AppError   "question or choice not found"
// @Failure     429      {object}  apperr.AppError   "rate limited"
// @Router      /questions/{id}/vote [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	choiceID, err := readChoiceID(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	out, err := h.questionSvc.Vote(r.Context(), questionID, choiceID)
	if errors.Is(err, question.ErrNoChoiceSelected) {
		d, derr := h.questionSvc.Get(r.Context(), questionID)
		if derr != nil {
			errorResponse(w, derr)
			return
		}
		writeJSON(w, http.StatusBadRequest, noChoiceResponse{
			Error:    "no_choice_selected",
			Message:  noChoiceMessage,
			Question: d,
		})
		return
	}
	if err != nil {
		errorResponse(w, err)
		return
	}

	ev := worker.NewEvent(worker.KindVoteCast)
	ev.QuestionID = questionID
	ev.ChoiceID = choiceID
	ev.UserID = userIDFromCtx(r)
	h.emit(ev)

	next := resultsPath(questionID)
	if out.NextFollowUpID != 0 {
		next = followUpPath(out.NextFollowUpID)
	}
	w.Header().Set("Location", next)
	writeJSON(w, http.StatusSeeOther, out)
}

// @Summary     Vote for a follow-up choice
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64        true  "Follow-up ID"
// @Param       request  body      voteRequest  true  "Vote payload"
// @Success     303      {object}  followup.VoteOutcome
// @Failure     400      {object}  noChoiceResponse  "no choice selected"
// @Failure     404      {object}  apperr.AppError   "follow-up or choice not found"
// @Router      /followups/{id}/vote [post]
func (h *Handler) handleFollowUpVote(w http.ResponseWriter, r *http.Request) {
	followUpID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	choiceID, err := readChoiceID(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	out, err := h.followUpSvc.Vote(r.Context(), followUpID, choiceID)
	if errors.Is(err, followup.ErrNoChoiceSelected) {
		d, derr := h.followUpSvc.Get(r.Context(), followUpID)
		if derr != nil {
			errorResponse(w, derr)
			return
		}
		writeJSON(w, http.StatusBadRequest, noChoiceResponse{
			Error:    "no_choice_selected",
			Message:  noChoiceMessage,
			FollowUp: d,
		})
		return
	}
	if err != nil {
		errorResponse(w, err)
		return
	}

	ev := worker.NewEvent(worker.KindFollowUpVoteCast)
	ev.FollowUpID = followUpID
	ev.ChoiceID = choiceID
	ev.UserID = userIDFromCtx(r)
	h.emit(ev)

	next := followUpPath(followUpID)
	if out.NextReplyID != 0 {
		next = followUpPath(out.NextReplyID)
	}
	w.Header().Set("Location", next)
	writeJSON(w, http.StatusSeeOther, out)
}

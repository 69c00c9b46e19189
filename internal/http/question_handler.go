package api

import (
	"net/http"
	"strconv"

	"polltree/internal/domain/question"
)

type createQuestionRequest struct {
	QuestionText string   `json:"question_text"`
	Choices      []string `json:"choices"`
}

// @Summary     Latest published questions
// @Tags        questions
// @Produce     json
// @Success     200  {array}   question.Question
// @Router      /questions [get]
func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.questionSvc.ListRecent(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

// @Summary     Create a question with its choices
// @Tags        questions
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createQuestionRequest  true  "Question"
// @Success     201      {object}  question.Detail
// @Failure     400      {object}  apperr.AppError  "validation error"
// @Failure     401      {object}  apperr.AppError  "unauthorized"
// @Router      /questions [post]
func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	d, err := h.questionSvc.Create(r.Context(), userIDFromCtx(r), req.QuestionText, req.Choices)
	if err != nil {
		errorResponse(w, err)
		return
	}
	w.Header().Set("Location", questionPath(d.ID))
	writeJSON(w, http.StatusCreated, d)
}

// @Summary     Question with choices and direct follow-ups
// @Tags        questions
// @Produce     json
// @Param       id   path      int64  true  "Question ID"
// @Success     200  {object}  question.Detail
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /questions/{id} [get]
func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	d, err := h.questionSvc.Get(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
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

	q, err := h.questionSvc.Update(r.Context(), id, userIDFromCtx(r), in)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	if err := h.questionSvc.Delete(r.Context(), id, userIDFromCtx(r)); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary     Vote totals and percentages
// @Tags        questions
// @Produce     json
// @Param       id   path      int64  true  "Question ID"
// @Success     200  {object}  question.Results
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /questions/{id}/results [get]
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, err)
		return
	}
	res, err := h.questionSvc.Results(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func questionPath(id int64) string {
	return "/api/v1/questions/" + strconv.FormatInt(id, 10)
}

func resultsPath(id int64) string {
	return questionPath(id) + "/results"
}

func followUpPath(id int64) string {
	return "/api/v1/followups/" + strconv.FormatInt(id, 10)
}


package api

import (
	"errors"
	"net/http"

	"polltree/internal/domain/followup"
	"polltree/internal/domain/question"
	"polltree/internal/domain/user"
	"polltree/internal/platform/apperr"
)

const noChoiceMessage = "You didn't select a choice."

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slogLogger.Error("request failed", "code", appErr.Code, "err", err)
	}
	writeJSON(w, appErr.StatusCode(), appErr)
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "invalid credentials", err)
	case errors.Is(err, user.ErrInactiveUser):
		return apperr.Unauthorized("inactive_user", "user is inactive", err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.BadRequest("email_taken", "email already taken", err)
	case errors.Is(err, user.ErrUserNotFound):
		return apperr.NotFound("user_not_found", "user not found", err)
	case errors.Is(err, user.ErrInvalidRole):
		return apperr.BadRequest("invalid_role", "role must be user or admin", err)

	case errors.Is(err, question.ErrQuestionNotFound):
		return apperr.NotFound("question_not_found", "question not found", err)
	case errors.Is(err, question.ErrChoiceNotFound):
		return apperr.NotFound("choice_not_found", "choice not found", err)
	case errors.Is(err, question.ErrForbidden), errors.Is(err, followup.ErrForbidden):
		return apperr.Forbidden("not_author", "only the author may change this resource", err)
	case errors.Is(err, question.ErrNoChoiceSelected), errors.Is(err, followup.ErrNoChoiceSelected):
		return apperr.BadRequest("no_choice_selected", noChoiceMessage, err)

	case errors.Is(err, followup.ErrFollowUpNotFound):
		return apperr.NotFound("follow_up_not_found", "follow-up question not found", err)
	case errors.Is(err, followup.ErrChoiceNotFound):
		return apperr.NotFound("follow_up_choice_not_found", "follow-up choice not found", err)
	case errors.Is(err, followup.ErrParentNotFound):
		return apperr.NotFound("parent_not_found", "parent not found", err)
	case errors.Is(err, followup.ErrInvalidParent):
		return apperr.BadRequest("invalid_parent", "follow-up must have exactly one parent", err)

	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}

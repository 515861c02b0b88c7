package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"case-connector/internal/model"
	"case-connector/pkg/apierror"
	"case-connector/pkg/response"
)

const maxTimeGroupBytes = 4 << 20

// TimePoster posts a time group to the case system.
type TimePoster interface {
	PostTime(ctx context.Context, group model.TimeGroup) model.PostResult
}

// TimeGroupHandler receives time groups posted by the time tracking platform.
type TimeGroupHandler struct {
	poster TimePoster
}

// NewTimeGroupHandler creates a new time group handler.
func NewTimeGroupHandler(poster TimePoster) *TimeGroupHandler {
	return &TimeGroupHandler{poster: poster}
}

// PostTimeGroup handles POST /api/v1/time-groups
func (h *TimeGroupHandler) PostTimeGroup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var group model.TimeGroup
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTimeGroupBytes)).Decode(&group); err != nil {
		response.Error(w, apierror.BadRequest("invalid time group JSON"))
		return
	}

	result := h.poster.PostTime(r.Context(), group)
	response.JSON(w, statusFor(result.Status), result)
}

// statusFor tells the caller whether a retry can help.
func statusFor(status model.PostStatus) int {
	switch status {
	case model.PostSuccess:
		return http.StatusOK
	case model.PostPermanentFailure:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

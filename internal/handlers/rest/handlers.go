package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/gamenight/internal/metrics"
	"github.com/KirkDiggler/gamenight/internal/models"
	sessionService "github.com/KirkDiggler/gamenight/internal/services/session"
)

const (
	upsertOutcomeHeader = "X-Upsert-Outcome"
	genericErrorMessage = "Something went wrong!"
)

type sessionHandler struct {
	service sessionService.Service
	log     zerolog.Logger
}

// createSessionRequest is the POST body. Timestamps in the body are ignored.
type createSessionRequest struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Players []string      `json:"players"`
	Games   []models.Game `json:"games"`
}

func (h *sessionHandler) listSessions(c *gin.Context) {
	result, err := h.service.ListSessions(c.Request.Context(), &sessionService.ListSessionsInput{})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Sessions)
}

func (h *sessionHandler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordSessionWrite("create", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.CreateSession(c.Request.Context(), &sessionService.CreateSessionInput{
		ID:      req.ID,
		Name:    req.Name,
		Players: req.Players,
		Games:   req.Games,
	})
	if err != nil {
		metrics.RecordSessionWrite("create", resultLabel(err))
		h.writeError(c, err)
		return
	}

	metrics.RecordSessionWrite("create", "ok")
	c.JSON(http.StatusCreated, result.Session)
}

func (h *sessionHandler) upsertSession(c *gin.Context) {
	var changes models.SessionChanges
	// An empty body changes nothing
	if err := c.ShouldBindJSON(&changes); err != nil && !errors.Is(err, io.EOF) {
		metrics.RecordSessionWrite("upsert", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.UpsertSession(c.Request.Context(), &sessionService.UpsertSessionInput{
		ID:      c.Param("id"),
		Changes: changes,
	})
	if err != nil {
		metrics.RecordSessionWrite("upsert", resultLabel(err))
		h.writeError(c, err)
		return
	}

	metrics.RecordSessionWrite("upsert", string(result.Outcome))
	c.Header(upsertOutcomeHeader, string(result.Outcome))
	c.JSON(http.StatusOK, result.Session)
}

func (h *sessionHandler) deleteSession(c *gin.Context) {
	_, err := h.service.DeleteSession(c.Request.Context(), &sessionService.DeleteSessionInput{
		ID: c.Param("id"),
	})
	if err != nil {
		metrics.RecordSessionWrite("delete", resultLabel(err))
		h.writeError(c, err)
		return
	}

	metrics.RecordSessionWrite("delete", "ok")
	c.Status(http.StatusNoContent)
}

func (h *sessionHandler) deleteGame(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		metrics.RecordSessionWrite("delete_game", "invalid")
		h.writeError(c, sessionService.ErrInvalidGameIndex)
		return
	}

	result, err := h.service.DeleteGame(c.Request.Context(), &sessionService.DeleteGameInput{
		SessionID: c.Param("id"),
		Index:     index,
	})
	if err != nil {
		metrics.RecordSessionWrite("delete_game", resultLabel(err))
		h.writeError(c, err)
		return
	}

	metrics.RecordSessionWrite("delete_game", "ok")
	c.JSON(http.StatusOK, result.Session)
}

// writeError renders err as {"error": message} with the matching status
func (h *sessionHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	message := err.Error()
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		message = sessionService.ErrSessionNotFound.Error()
	case errors.Is(err, sessionService.ErrInvalidGameIndex):
		message = sessionService.ErrInvalidGameIndex.Error()
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
		if message == "" {
			message = genericErrorMessage
		}
	}

	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessionService.ErrInvalidGameIndex),
		errors.Is(err, sessionService.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, sessionService.ErrSessionExists),
		errors.Is(err, sessionService.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// resultLabel names a failed write for the metrics counter
func resultLabel(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}

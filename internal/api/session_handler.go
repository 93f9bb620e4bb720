package api

import (
	"bytes"
	"net/http"
	"strconv"

	"mezzanine/adapters/excel"
	"mezzanine/app"
	"mezzanine/domain/core"
	"mezzanine/internal/errors"
	"mezzanine/internal/report"
	"mezzanine/models"

	"github.com/gin-gonic/gin"
)

// reportBeliefs caps the leading hypotheses listed in reports
const reportBeliefs = 10

// SessionHandler serves guessing sessions over HTTP
type SessionHandler struct {
	games *app.GameService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(games *app.GameService) *SessionHandler {
	return &SessionHandler{games: games}
}

// sessionResponse is a session header with its current step
type sessionResponse struct {
	Session *models.GameSession `json:"session"`
	Step    app.Step            `json:"step"`
}

type answerRequest struct {
	Verdict *bool `json:"verdict" binding:"required"`
}

// CreateSession starts a session. The body is optional; missing fields take
// the configured defaults.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req app.StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, errors.InvalidInput("invalid request body: "+err.Error()))
			return
		}
	}

	session, step, err := h.games.Start(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Session: session, Step: step})
}

// ListSessions returns the most recently updated sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	limit, ok := queryLimit(c, 50)
	if !ok {
		return
	}
	sessions, err := h.games.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns the pending prompt or the outcome of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, step, err := h.games.Current(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session, Step: step})
}

// Answer records the verdict for the pending prompt. An answer that leaves
// no hypothesis standing is reported as a conflict carrying the collapsed
// session.
func (h *SessionHandler) Answer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidInput("verdict is required"))
		return
	}

	session, step, err := h.games.Answer(c.Request.Context(), id, *req.Verdict)
	if err != nil {
		if core.IsCollapse(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   core.CollapseMessage,
				"code":    errors.CodeDistributionCollapse,
				"session": session,
				"step":    step,
			})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session, Step: step})
}

// GetBeliefs lists the hypotheses still standing, most probable first
func (h *SessionHandler) GetBeliefs(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 0)
	if !ok {
		return
	}
	beliefs, err := h.games.Beliefs(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"beliefs": beliefs})
}

// GetTranscript returns the answered questions and their summary statistics
func (h *SessionHandler) GetTranscript(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, transcript, err := h.games.Transcript(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := report.Summarize(transcript)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":    session,
		"transcript": transcript,
		"summary":    summary,
	})
}

// GetReport renders the session as an HTML page
func (h *SessionHandler) GetReport(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, transcript, beliefs, err := h.gather(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := report.Page(session, transcript, beliefs, reportBeliefs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// GetWorkbook downloads the session as an Excel workbook
func (h *SessionHandler) GetWorkbook(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, transcript, beliefs, err := h.gather(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := excel.WriteWorkbook(&buf, session, transcript, beliefs); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="session-`+session.ID+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *SessionHandler) gather(c *gin.Context, id core.SessionID) (*models.GameSession, []models.TranscriptEntry, []models.BeliefView, error) {
	ctx := c.Request.Context()
	session, transcript, err := h.games.Transcript(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	beliefs, err := h.games.Beliefs(ctx, id, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	return session, transcript, beliefs, nil
}

func sessionID(c *gin.Context) (core.SessionID, bool) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		writeError(c, errors.InvalidInput("invalid session id: "+c.Param("id")))
		return "", false
	}
	return id, true
}

func queryLimit(c *gin.Context, defaultLimit int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(c, errors.InvalidInput("limit must be a non-negative integer"))
		return 0, false
	}
	return limit, true
}

// writeError maps an error to a status code and a JSON body
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		c.Error(err)
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeSessionFinished, errors.CodeDistributionCollapse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

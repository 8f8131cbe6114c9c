package webui

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wikiqa/internal/assistant"
	"wikiqa/internal/confluence"
	"wikiqa/internal/token"
)

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.Lock()
	count := len(s.sessions)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"sessions": count,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	id, orch := s.createSession()
	s.logger.Info("created session %s", id)
	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID: id,
		State:     orch.State().String(),
	})
}

// withSession resolves the :id parameter or writes a 404.
func (s *Server) withSession(c *gin.Context) (*assistant.Orchestrator, bool) {
	orch, ok := s.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown session"})
		return nil, false
	}
	return orch, true
}

func (s *Server) handleLoadPage(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}

	var req loadPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "page_id is required"})
		return
	}

	page, err := orch.LoadPage(c.Request.Context(), req.PageID)
	if err != nil {
		s.writeOrchestratorError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

func (s *Server) handleGetPage(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}
	page := orch.ActivePage()
	if page == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no page loaded"})
		return
	}
	c.JSON(http.StatusOK, toPageResponse(page))
}

func (s *Server) handleAsk(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	answer, err := orch.Ask(c.Request.Context(), req.Question)
	if err != nil {
		s.writeOrchestratorError(c, err)
		return
	}
	c.JSON(http.StatusOK, askResponse{Answer: answer, State: orch.State().String()})
}

func (s *Server) handleTurns(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}

	turns := orch.Conversation().Turns()
	out := turnsResponse{Turns: make([]turnDTO, 0, len(turns))}
	for _, turn := range turns {
		out.Turns = append(out.Turns, turnDTO{
			Role:      turn.Role,
			Content:   turn.Content,
			Timestamp: turn.Timestamp.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleClear(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}
	orch.ClearConversation()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleExport(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}

	data, filename, exported := orch.Conversation().ExportJSON()
	if !exported {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleSummary(c *gin.Context) {
	orch, ok := s.withSession(c)
	if !ok {
		return
	}

	maxTokens := 300
	if raw := c.Query("max_tokens"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "max_tokens must be a positive integer"})
			return
		}
		maxTokens = parsed
	}

	summary, err := orch.PageSummary(c.Request.Context(), maxTokens)
	if err != nil {
		s.writeOrchestratorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	// Search needs no session state; a throwaway orchestrator keeps the
	// uniform empty-on-failure contract in one place.
	orch := s.factory()
	results := orch.Search(c.Request.Context(), query, limit)
	c.JSON(http.StatusOK, searchResponse{Results: results})
}

func (s *Server) writeOrchestratorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyPageID),
		errors.Is(err, assistant.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrNoPageLoaded):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrBusy):
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrPageUnavailable):
		// Uniform outcome for every fetch failure; details are in the log.
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toPageResponse(page *confluence.Page) pageResponse {
	return pageResponse{
		ID:          page.ID,
		Title:       page.Title,
		URL:         page.URL,
		Version:     page.Version,
		Created:     page.Created,
		Updated:     page.Updated,
		Space:       page.Space,
		Labels:      page.Labels,
		Breadcrumbs: page.Breadcrumbs(),
		Children:    page.Children,
		Chars:       len(page.Content),
		Tokens:      token.Count(page.Content),
	}
}

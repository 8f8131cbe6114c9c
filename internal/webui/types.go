package webui

import "wikiqa/internal/confluence"

// Request/response shapes for the JSON API.

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

type loadPageRequest struct {
	PageID string `json:"page_id" binding:"required"`
}

type pageResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Version     int      `json:"version"`
	Created     string   `json:"created"`
	Updated     string   `json:"last_updated"`
	Space       string   `json:"space"`
	Labels      []string `json:"labels"`
	Breadcrumbs []string `json:"breadcrumbs"`
	Children    []string `json:"child_pages"`
	Chars       int      `json:"content_chars"`
	Tokens      int      `json:"content_tokens"`
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type askResponse struct {
	Answer string `json:"answer"`
	State  string `json:"state"`
}

type turnsResponse struct {
	Turns []turnDTO `json:"turns"`
}

type turnDTO struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type searchResponse struct {
	Results []confluence.SearchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"wikiqa/internal/confluence"
	"wikiqa/internal/logging"
	"wikiqa/internal/remote"
	"wikiqa/internal/session"
)

// State of an orchestrated session.
type State int

const (
	// NoPageLoaded means no page has been successfully fetched yet.
	NoPageLoaded State = iota
	// PageLoaded means a page is active and questions are accepted.
	PageLoaded
	// AwaitingAnswer means a question is in flight; further operations are
	// rejected until the answer lands.
	AwaitingAnswer
	// Loading means a page fetch is in flight; further operations are
	// rejected until the load commits or fails.
	Loading
)

func (s State) String() string {
	switch s {
	case NoPageLoaded:
		return "no_page_loaded"
	case PageLoaded:
		return "page_loaded"
	case AwaitingAnswer:
		return "awaiting_answer"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// Sentinel errors surfaced to the UI layer. Remote failures never reach
// callers as raw errors; they collapse into these or into fallback text.
var (
	// ErrEmptyPageID rejects a load attempt before any network call.
	ErrEmptyPageID = errors.New("page id must not be empty")
	// ErrEmptyQuestion rejects a blank question before any network call.
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrNoPageLoaded rejects Ask while no page is active.
	ErrNoPageLoaded = errors.New("no page loaded")
	// ErrBusy rejects operations while another one is in flight.
	ErrBusy = errors.New("another operation is still in flight")
	// ErrPageUnavailable is the uniform load-failure outcome. The
	// underlying cause (not found, auth, transient) is logged, not
	// returned.
	ErrPageUnavailable = errors.New("page could not be loaded")
)

// PageFetcher is the slice of the wiki client the orchestrator needs.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageID string) (*confluence.Page, error)
	SearchPages(ctx context.Context, query string, limit int) ([]confluence.SearchResult, error)
}

// sessionState is the one place session-scoped mutable state lives. Each
// transition mutates it under the orchestrator's mutex; there are no
// free-floating optional fields.
type sessionState struct {
	state State
	page  *confluence.Page
}

// Orchestrator ties a loaded page to a conversation session and the
// answerer. One orchestrator serves one user session; operations are
// single-flight.
type Orchestrator struct {
	fetcher  PageFetcher
	answerer *Answerer
	conv     *session.Session
	logger   logging.Logger

	mu sync.Mutex
	st sessionState
}

// NewOrchestrator wires a fetcher, an answerer and a fresh conversation.
func NewOrchestrator(fetcher PageFetcher, answerer *Answerer, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		answerer: answerer,
		conv:     session.New(),
		logger:   logging.OrNop(logger),
		st:       sessionState{state: NoPageLoaded},
	}
}

// State reports the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.state
}

// ActivePage returns the loaded page, or nil.
func (o *Orchestrator) ActivePage() *confluence.Page {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.page
}

// Conversation exposes the session's turn log.
func (o *Orchestrator) Conversation() *session.Session {
	return o.conv
}

// LoadPage fetches pageID and makes it the active page, replacing any
// prior page wholesale. The conversation is retained across loads so users
// can compare pages; clearing stays an explicit user action.
//
// All fetch failures collapse to ErrPageUnavailable; the cause is logged
// for operator diagnosis only.
func (o *Orchestrator) LoadPage(ctx context.Context, pageID string) (*confluence.Page, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, ErrEmptyPageID
	}

	// Hold the Loading state for the whole fetch so concurrent operations
	// on this session see busy instead of interleaving with the load.
	o.mu.Lock()
	if o.st.state == AwaitingAnswer || o.st.state == Loading {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	prev := o.st.state
	o.st.state = Loading
	o.mu.Unlock()

	page, err := o.fetcher.FetchPage(ctx, pageID)
	if err != nil {
		switch {
		case remote.IsNotFound(err):
			o.logger.Warn("load page %s: not found", pageID)
		case remote.IsAuth(err):
			o.logger.Error("load page %s: credentials rejected: %v", pageID, err)
		case remote.IsTransient(err):
			o.logger.Warn("load page %s: transient failure: %v", pageID, err)
		default:
			o.logger.Error("load page %s: %v", pageID, err)
		}
		o.mu.Lock()
		o.st.state = prev
		o.mu.Unlock()
		return nil, ErrPageUnavailable
	}

	o.mu.Lock()
	o.st = sessionState{state: PageLoaded, page: page}
	o.mu.Unlock()

	o.logger.Info("active page is now %s (%q)", page.ID, page.Title)
	return page, nil
}

// Ask answers question from the active page's content. The user turn is
// appended before the completion call; the assistant turn is appended
// whether the call produced an answer or the fallback string.
func (o *Orchestrator) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	o.mu.Lock()
	switch o.st.state {
	case NoPageLoaded:
		o.mu.Unlock()
		return "", ErrNoPageLoaded
	case AwaitingAnswer, Loading:
		o.mu.Unlock()
		return "", ErrBusy
	}
	page := o.st.page
	o.st.state = AwaitingAnswer
	o.mu.Unlock()

	o.conv.AppendUser(question)
	answer := o.answerer.GenerateAnswer(ctx, page.Content, question)
	o.conv.AppendAssistant(answer)

	o.mu.Lock()
	o.st.state = PageLoaded
	o.mu.Unlock()

	return answer, nil
}

// Search proxies a page search, honoring the uniform-failure contract: any
// remote error is logged and collapses to an empty result list.
func (o *Orchestrator) Search(ctx context.Context, query string, limit int) []confluence.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []confluence.SearchResult{}
	}
	results, err := o.fetcher.SearchPages(ctx, query, limit)
	if err != nil {
		o.logger.Error("search %q: %v", query, err)
		return []confluence.SearchResult{}
	}
	return results
}

// ClearConversation drops the chat log on explicit user action.
func (o *Orchestrator) ClearConversation() {
	o.conv.Clear()
}

// PageSummary summarizes the active page.
func (o *Orchestrator) PageSummary(ctx context.Context, maxTokens int) (string, error) {
	o.mu.Lock()
	page := o.st.page
	state := o.st.state
	o.mu.Unlock()

	if state == NoPageLoaded || page == nil {
		return "", ErrNoPageLoaded
	}
	if state == AwaitingAnswer || state == Loading {
		return "", ErrBusy
	}
	return o.answerer.Summarize(ctx, page.Content, maxTokens), nil
}

// Describe returns a short operator-facing description of the session.
func (o *Orchestrator) Describe() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.st.page == nil {
		return fmt.Sprintf("state=%s turns=%d", o.st.state, o.conv.Len())
	}
	return fmt.Sprintf("state=%s page=%s turns=%d", o.st.state, o.st.page.ID, o.conv.Len())
}

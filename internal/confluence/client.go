// Package confluence fetches and searches wiki pages over the Confluence
// Cloud REST API and maps them into normalized Page records.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wikiqa/internal/config"
	"wikiqa/internal/htmltext"
	"wikiqa/internal/httpclient"
	"wikiqa/internal/logging"
	"wikiqa/internal/remote"
)

// pageExpand asks for everything a Page record needs in one round trip.
const pageExpand = "body.storage,version,ancestors,descendants.page,metadata.labels,space,history"

// maxResponseBytes caps wiki responses; storage bodies beyond this are not
// worth normalizing into a completion context anyway.
const maxResponseBytes = 16 << 20

// Config carries the credentials for one Confluence site.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client talks to one Confluence site on behalf of one account.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	logger     logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the client's logger.
func WithLogger(logger logging.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// New validates the credentials and constructs a Client. Missing
// credentials are fatal here, before any network call is attempted.
func New(cfg Config, opts ...Option) (*Client, error) {
	appCfg := config.Config{
		ConfluenceURL:      cfg.BaseURL,
		ConfluenceEmail:    cfg.Email,
		ConfluenceAPIToken: cfg.APIToken,
	}
	if err := appCfg.ValidateConfluence(); err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:  appCfg.ConfluenceURL,
		email:    cfg.Email,
		apiToken: cfg.APIToken,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpclient.New(30 * time.Second)
	}
	client.logger = logging.OrNop(client.logger)
	return client, nil
}

// FetchPage retrieves one page by identifier with its version, ancestor,
// descendant and label metadata expanded, and maps it into a Page.
//
// Failures are typed: remote.ErrNotFound, *remote.AuthError, or
// *remote.TransientError. Callers that want the legacy uniform "no page"
// behavior collapse these at their own boundary.
func (c *Client) FetchPage(ctx context.Context, pageID string) (*Page, error) {
	endpoint := fmt.Sprintf("%s/wiki/rest/api/content/%s?expand=%s",
		c.baseURL, url.PathEscape(pageID), url.QueryEscape(pageExpand))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		c.logger.Error("fetch page %s: %v", pageID, err)
		return nil, fmt.Errorf("fetch page %s: %w", pageID, err)
	}

	var raw pageResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Error("fetch page %s: decode: %v", pageID, err)
		return nil, fmt.Errorf("fetch page %s: decode response: %w", pageID, err)
	}

	page := raw.toPage(c.baseURL)
	c.logger.Info("fetched page %s (%q, version %d, %d chars)",
		page.ID, page.Title, page.Version, len(page.Content))
	return page, nil
}

// SearchPages runs a site search for query and returns up to limit rows.
// The error contract matches FetchPage.
func (c *Client) SearchPages(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	cql := fmt.Sprintf(`siteSearch ~ "%s"`, escapeCQL(query))
	endpoint := fmt.Sprintf("%s/wiki/rest/api/search?cql=%s&limit=%s&expand=%s",
		c.baseURL,
		url.QueryEscape(cql),
		strconv.Itoa(limit),
		url.QueryEscape("content.version,content.space"))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		c.logger.Error("search %q: %v", query, err)
		return nil, fmt.Errorf("search pages: %w", err)
	}

	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Error("search %q: decode: %v", query, err)
		return nil, fmt.Errorf("search pages: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		if r.Content == nil {
			continue
		}
		results = append(results, SearchResult{
			ID:          r.Content.ID,
			Title:       r.Content.Title,
			Space:       r.Content.Space.Name,
			LastUpdated: r.Content.Version.When,
		})
	}
	c.logger.Info("search %q returned %d results", query, len(results))
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remote.WrapNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remote.ClassifyHTTPStatus(resp.StatusCode, body)
	}
	return body, nil
}

// escapeCQL escapes the characters CQL treats specially inside a quoted
// term.
func escapeCQL(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return string(b)
}

// Wire shapes for the REST responses. Only the fields the Page record needs
// are declared; everything else the server sends is ignored.

type pageResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
	} `json:"version"`
	History struct {
		CreatedDate string `json:"createdDate"`
	} `json:"history"`
	Space struct {
		Name string `json:"name"`
	} `json:"space"`
	Metadata struct {
		Labels struct {
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		} `json:"labels"`
	} `json:"metadata"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	Descendants struct {
		Page struct {
			Results []struct {
				Title string `json:"title"`
			} `json:"results"`
		} `json:"page"`
	} `json:"descendants"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

func (r *pageResponse) toPage(baseURL string) *Page {
	page := &Page{
		ID:        r.ID,
		Title:     r.Title,
		URL:       baseURL + "/wiki" + r.Links.WebUI,
		Content:   htmltext.Normalize(r.Body.Storage.Value),
		Version:   r.Version.Number,
		Created:   r.History.CreatedDate,
		Updated:   r.Version.When,
		Space:     r.Space.Name,
		Labels:    make([]string, 0, len(r.Metadata.Labels.Results)),
		Ancestors: make([]string, 0, len(r.Ancestors)),
		Children:  make([]string, 0, len(r.Descendants.Page.Results)),
	}
	if page.Space == "" {
		page.Space = "Unknown"
	}
	for _, label := range r.Metadata.Labels.Results {
		page.Labels = append(page.Labels, label.Name)
	}
	for _, ancestor := range r.Ancestors {
		page.Ancestors = append(page.Ancestors, ancestor.Title)
	}
	for _, child := range r.Descendants.Page.Results {
		page.Children = append(page.Children, child.Title)
	}
	return page
}

type searchResponse struct {
	Results []struct {
		Content *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Space struct {
				Name string `json:"name"`
			} `json:"space"`
			Version struct {
				When string `json:"when"`
			} `json:"version"`
		} `json:"content"`
	} `json:"results"`
}

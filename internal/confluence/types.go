package confluence

// Page is the normalized representation of one remote wiki document.
// Content is always plain text, never markup; metadata lists are empty,
// never nil, when the server omits them.
type Page struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Content   string   `json:"content"`
	Version   int      `json:"version"`
	Created   string   `json:"created"`
	Updated   string   `json:"last_updated"`
	Space     string   `json:"space"`
	Labels    []string `json:"labels"`
	Ancestors []string `json:"ancestors"` // root-to-parent order
	Children  []string `json:"child_pages"`
}

// Breadcrumbs returns the ancestor titles in parent-to-root order, the way
// a breadcrumb trail is displayed.
func (p *Page) Breadcrumbs() []string {
	crumbs := make([]string, len(p.Ancestors))
	for i, title := range p.Ancestors {
		crumbs[len(p.Ancestors)-1-i] = title
	}
	return crumbs
}

// SearchResult is one row of a page search.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Space       string `json:"space"`
	LastUpdated string `json:"last_updated"`
}

// Chunk is a bounded-length slice of a page's text, tagged for a future
// retrieval step. Chunks are derived on demand and never persisted.
type Chunk struct {
	ID        string `json:"chunk_id"` // "{pageID}_{index}"
	Index     int    `json:"index"`
	PageID    string `json:"page_id"`
	PageTitle string `json:"page_title"`
	Text      string `json:"text"`
}

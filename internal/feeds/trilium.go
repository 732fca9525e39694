package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Trilium reads notes through the Trilium ETAPI.
type Trilium struct {
	baseURL string
	token   string
	client  *http.Client
}

func (t *Trilium) Name() string { return "trilium" }

type triliumNote struct {
	NoteID       string `json:"noteId"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	DateModified string `json:"dateModified"`
	Attributes   []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"attributes"`
}

type triliumSearchResponse struct {
	Results []triliumNote `json:"results"`
}

// RecentItems returns the most recently modified notes.
func (t *Trilium) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	return t.search(ctx, "*", limit)
}

// NotesByTag returns notes carrying the given tag, most recent first.
// The tag is passed without the leading '#'.
func (t *Trilium) NotesByTag(ctx context.Context, tag string, limit int) ([]Item, error) {
	query := "*"
	if tag != "" {
		query = "#" + tag
	}
	return t.search(ctx, query, limit)
}

func (t *Trilium) search(ctx context.Context, query string, limit int) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/etapi/notes?search=%s&limit=%d&orderBy=dateModified&orderDirection=desc",
		t.baseURL, url.QueryEscape(query), limit)

	var resp triliumSearchResponse
	// ETAPI wants the raw token, no Bearer prefix.
	headers := map[string]string{"Authorization": t.token}
	if err := getJSON(ctx, t.client, "Trilium", endpoint, headers, &resp); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Results))
	for _, note := range resp.Results {
		if len(items) >= limit {
			break
		}
		description := "Text note"
		if note.Type != "text" {
			description = note.Type + " note"
		}
		var tags []string
		for _, attr := range note.Attributes {
			if attr.Name == "tag" {
				tags = append(tags, attr.Value)
			}
		}
		items = append(items, Item{
			Title:       note.Title,
			Description: description,
			URL:         fmt.Sprintf("%s/#%s", t.baseURL, note.NoteID),
			Date:        parseDate(note.DateModified),
			Tags:        tags,
		})
	}
	return items, nil
}

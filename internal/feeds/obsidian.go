package feeds

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Obsidian lists vault files through the Local REST API plugin. The
// plugin only exposes file operations: no tag or content search, and no
// modification times, so items carry the fetch time as their date.
type Obsidian struct {
	baseURL string
	apiKey  string
	vault   string
	client  *http.Client
}

func (o *Obsidian) Name() string { return "obsidian" }

type obsidianVaultResponse struct {
	Files []string `json:"files"`
}

func (o *Obsidian) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	var resp obsidianVaultResponse
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := getJSON(ctx, o.client, "Obsidian", o.baseURL+"/vault/", headers, &resp); err != nil {
		return nil, err
	}

	vault := o.vault
	if vault == "" {
		vault = "Vault"
	}

	items := make([]Item, 0, limit)
	for _, file := range resp.Files {
		if !strings.HasSuffix(file, ".md") {
			continue
		}
		if len(items) >= limit {
			break
		}
		name := strings.TrimSuffix(file, ".md")
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		items = append(items, Item{
			Title:       name,
			Description: "Obsidian note",
			URL:         "obsidian://open?vault=" + url.QueryEscape(vault) + "&file=" + url.QueryEscape(file),
			Date:        time.Now(),
		})
	}
	return items, nil
}

package feeds

import (
	"context"
	"fmt"
	"net/http"
)

// Linkwarden reads recently saved links from the Linkwarden API.
type Linkwarden struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func (l *Linkwarden) Name() string { return "linkwarden" }

type linkwardenResponse struct {
	Response []struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		Description string `json:"description"`
		CreatedAt   string `json:"createdAt"`
		Tags        []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"response"`
}

func (l *Linkwarden) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/api/v1/links?sort=createdAt&take=%d", l.baseURL, limit)

	var resp linkwardenResponse
	headers := map[string]string{"Authorization": "Bearer " + l.apiKey}
	if err := getJSON(ctx, l.client, "Linkwarden", endpoint, headers, &resp); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Response))
	for _, link := range resp.Response {
		title := link.Name
		if title == "" {
			title = link.URL
		}
		var tags []string
		for _, tag := range link.Tags {
			tags = append(tags, tag.Name)
		}
		items = append(items, Item{
			Title:       title,
			Description: link.Description,
			URL:         link.URL,
			Date:        parseDate(link.CreatedAt),
			Tags:        tags,
		})
	}
	return items, nil
}

package feeds

import (
	"context"
	"net/http"
	"strings"
)

// Todoist reads tasks from the Todoist REST API.
type Todoist struct {
	token  string
	client *http.Client
}

func (t *Todoist) Name() string { return "todoist" }

// Task is one open Todoist task.
type Task struct {
	Content string   `json:"content"`
	URL     string   `json:"url"`
	Labels  []string `json:"labels"`
	Due     *struct {
		Date string `json:"date"`
	} `json:"due"`
}

type todoistProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tasks returns open tasks, optionally narrowed to a project (matched
// case-insensitively by name) and a label.
func (t *Todoist) Tasks(ctx context.Context, projectName, tag string) ([]Task, error) {
	headers := map[string]string{"Authorization": "Bearer " + t.token}

	endpoint := "https://api.todoist.com/rest/v2/tasks"
	if projectName != "" {
		var projects []todoistProject
		if err := getJSON(ctx, t.client, "Todoist", "https://api.todoist.com/rest/v2/projects", headers, &projects); err == nil {
			for _, p := range projects {
				if strings.EqualFold(p.Name, projectName) {
					endpoint += "?project_id=" + p.ID
					break
				}
			}
		}
	}

	var tasks []Task
	if err := getJSON(ctx, t.client, "Todoist", endpoint, headers, &tasks); err != nil {
		return nil, err
	}

	if tag == "" {
		return tasks, nil
	}
	filtered := tasks[:0]
	for _, task := range tasks {
		for _, label := range task.Labels {
			if label == tag {
				filtered = append(filtered, task)
				break
			}
		}
	}
	return filtered, nil
}

// RecentItems adapts open tasks to the normalized item shape so Todoist
// can also back the preview widget.
func (t *Todoist) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	tasks, err := t.Tasks(ctx, "", "")
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, limit)
	for _, task := range tasks {
		if len(items) >= limit {
			break
		}
		item := Item{
			Title:       task.Content,
			Description: "Todoist task",
			URL:         task.URL,
			Tags:        task.Labels,
		}
		if task.Due != nil {
			item.Date = parseDate(task.Due.Date)
		}
		items = append(items, item)
	}
	return items, nil
}

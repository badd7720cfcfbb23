package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/existflow/ironboard/internal/model"
)

// itemPageSize is the page size used when listing items
const itemPageSize = 100

// itemPage is one page of the item listing
type itemPage struct {
	Items  []model.Item `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ListItems returns every item in the project, following pagination
func (c *Client) ListItems(ctx context.Context, projectID int64) ([]model.Item, error) {
	var items []model.Item
	offset := 0
	for {
		var page itemPage
		err := c.do(ctx, request{
			method: http.MethodGet,
			path:   pathf("/items/projects/%d/items?limit=%d&offset=%d", projectID, itemPageSize, offset),
			out:    &page,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		offset += len(page.Items)
		// Servers that ignore paging return everything at once with no total
		if len(page.Items) == 0 || page.Total == 0 || offset >= page.Total {
			break
		}
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetItem fetches one item with comments, subtasks and parent epic
func (c *Client) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var result struct {
		Item model.Item `json:"item"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/items/%d", id), out: &result}); err != nil {
		return nil, err
	}
	return &result.Item, nil
}

// CreateItem creates an item and returns its id and title
func (c *Client) CreateItem(ctx context.Context, projectID int64, draft model.ItemDraft) (*model.Item, error) {
	if draft.Type == "" {
		draft.Type = model.TypeTask
	}
	if draft.Status == "" {
		draft.Status = model.StatusTodo
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var result struct {
		Item model.Item `json:"item"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/items/projects/%d/items", projectID),
		body:   draft,
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	return &result.Item, nil
}

// UpdateItem applies a partial update
func (c *Client) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) error {
	if patch.Empty() {
		return fmt.Errorf("nothing to update")
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPatch, path: pathf("/items/%d", id), body: patch})
}

// DeleteItem removes an item
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/items/%d", id)})
}

// AddComment posts a comment on an item
func (c *Client) AddComment(ctx context.Context, itemID int64, content string) (*model.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("content required")
	}
	var result struct {
		Comment model.Comment `json:"comment"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/items/%d/comments", itemID),
		body:   map[string]string{"content": content},
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	return &result.Comment, nil
}

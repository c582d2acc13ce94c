// Package tasks provides Microsoft To Do operations via Microsoft Graph.
package tasks

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
)

// DefaultListName is the well-known default To Do list.
const DefaultListName = "Tasks"

// Client performs Microsoft To Do operations for one account.
type Client struct {
	graph *microsoft.Client
}

// NewClient creates a To Do client on top of a Graph client.
func NewClient(graph *microsoft.Client) *Client {
	return &Client{graph: graph}
}

// Lists returns all task lists.
func (c *Client) Lists(ctx context.Context) ([]TaskList, error) {
	var resp struct {
		Value []TaskList `json:"value"`
	}
	if err := c.graph.Get(ctx, "/me/todo/lists", nil, &resp); err != nil {
		return nil, fmt.Errorf("list task lists: %w", err)
	}
	return resp.Value, nil
}

// resolveListID finds a task list ID by display name, falling back to the
// first list when the name does not match.
func (c *Client) resolveListID(ctx context.Context, listName string) (string, error) {
	lists, err := c.Lists(ctx)
	if err != nil {
		return "", err
	}
	for _, list := range lists {
		if list.DisplayName == listName {
			return list.ID, nil
		}
	}
	if len(lists) > 0 {
		return lists[0].ID, nil
	}
	return "", fmt.Errorf("task list %q not found", listName)
}

// List returns tasks from the named list, newest first. Completed tasks are
// excluded unless includeCompleted is set.
func (c *Client) List(ctx context.Context, listName string, includeCompleted bool) ([]Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$orderby", "createdDateTime desc")
	if !includeCompleted {
		query.Set("$filter", "status ne 'completed'")
	}

	var resp struct {
		Value []Task `json:"value"`
	}
	path := fmt.Sprintf("/me/todo/lists/%s/tasks", url.PathEscape(listID))
	if err := c.graph.Get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return resp.Value, nil
}

// taskPatch is the mutable portion of a task for create and update.
type taskPatch struct {
	Title       string        `json:"title,omitempty"`
	Status      string        `json:"status,omitempty"`
	DueDateTime *DateTimeZone `json:"dueDateTime,omitempty"`
}

// Create creates a task in the named list. dueDate may be empty.
func (c *Client) Create(ctx context.Context, listName, title, dueDate string) (*Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	payload := taskPatch{Title: title}
	if dueDate != "" {
		payload.DueDateTime = &DateTimeZone{DateTime: dueDate, TimeZone: "UTC"}
	}

	var task Task
	path := fmt.Sprintf("/me/todo/lists/%s/tasks", url.PathEscape(listID))
	if err := c.graph.Post(ctx, path, payload, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// Complete marks a task as completed.
func (c *Client) Complete(ctx context.Context, listName, taskID string) (*Task, error) {
	return c.update(ctx, listName, taskID, taskPatch{Status: StatusCompleted})
}

// update patches a task in the named list.
func (c *Client) update(ctx context.Context, listName, taskID string, payload taskPatch) (*Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	var task Task
	path := fmt.Sprintf("/me/todo/lists/%s/tasks/%s", url.PathEscape(listID), url.PathEscape(taskID))
	if err := c.graph.Patch(ctx, path, payload, &task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// Delete removes a task from the named list.
func (c *Client) Delete(ctx context.Context, listName, taskID string) error {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/me/todo/lists/%s/tasks/%s", url.PathEscape(listID), url.PathEscape(taskID))
	if err := c.graph.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Package api talks to the practice-management GraphQL endpoint. Only two
// operations matter to this client: the GetTasks query and the UpdateTask
// mutation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rowanvell/lexboard/internal/model"
)

const getTasksQuery = `query GetTasks($limit: Int) {
  tasks(limit: $limit) {
    id
    title
    description
    taskType
    status
    priority
    dueDate
    dueTime
    estimatedHours
    parentTaskId
    case { id caseNumber title }
    assignee { id firstName lastName }
    subtasks {
      id
      title
      description
      taskType
      status
      priority
      dueDate
      dueTime
      estimatedHours
      parentTaskId
      case { id caseNumber title }
      assignee { id firstName lastName }
      createdAt
      completedAt
    }
    createdAt
    completedAt
  }
}`

const updateTaskMutation = `mutation UpdateTask($id: ID!, $input: UpdateTaskInput!) {
  updateTask(id: $id, input: $input) {
    id
    status
  }
}`

type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// GetTasks fetches up to limit task records.
func (c *Client) GetTasks(ctx context.Context, limit int) ([]model.Task, error) {
	var payload struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, getTasksQuery, map[string]any{"limit": limit}, &payload); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return payload.Tasks, nil
}

// UpdateTaskStatus issues the UpdateTask mutation with a partial update
// carrying only the new raw status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	variables := map[string]any{
		"id":    taskID,
		"input": map[string]any{"status": status},
	}
	var payload struct {
		UpdateTask struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"updateTask"`
	}
	if err := c.do(ctx, updateTaskMutation, variables, &payload); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

package model

import "time"

// Task is a task record exactly as the practice-management API returns it
// from the GetTasks query. Optional fields are pointers; absent means the
// API sent null.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	TaskType       string     `json:"taskType"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *string    `json:"dueDate"`
	DueTime        *string    `json:"dueTime"`
	EstimatedHours *float64   `json:"estimatedHours"`
	ParentTaskID   *string    `json:"parentTaskId"`
	Case           *Case      `json:"case"`
	Assignee       Assignee   `json:"assignee"`
	Subtasks       []Task     `json:"subtasks"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

type Case struct {
	ID         string `json:"id"`
	CaseNumber string `json:"caseNumber"`
	Title      string `json:"title"`
}

type Assignee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Raw enum values the API emits.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"

	PriorityUrgent = "URGENT"
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rowanvell/lexboard/internal/model"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// SaveSnapshot replaces the stored snapshot with the given task list,
// preserving response order. Nested subtasks travel as a JSON column; the
// board rebuilds its own view records on every render anyway.
func (s *Store) SaveSnapshot(ctx context.Context, tasks []model.Task, fetchedAt time.Time) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	for i, task := range tasks {
		subtasks, err := json.Marshal(task.Subtasks)
		if err != nil {
			return fmt.Errorf("encode subtasks for %s: %w", task.ID, err)
		}

		var caseID, caseNumber, caseTitle sql.NullString
		if task.Case != nil {
			caseID = sql.NullString{String: task.Case.ID, Valid: true}
			caseNumber = sql.NullString{String: task.Case.CaseNumber, Valid: true}
			caseTitle = sql.NullString{String: task.Case.Title, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (
				id, position, title, description, task_type, status, priority,
				due_date, due_time, estimated_hours, parent_task_id,
				case_id, case_number, case_title,
				assignee_id, assignee_first_name, assignee_last_name,
				subtasks_json, created_at, completed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID, i, task.Title, nullString(task.Description), task.TaskType,
			task.Status, task.Priority,
			nullString(task.DueDate), nullString(task.DueTime), nullFloat(task.EstimatedHours),
			nullString(task.ParentTaskID),
			caseID, caseNumber, caseTitle,
			task.Assignee.ID, task.Assignee.FirstName, task.Assignee.LastName,
			string(subtasks), task.CreatedAt, nullTime(task.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_meta (id, fetched_at) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at",
		fetchedAt,
	); err != nil {
		return fmt.Errorf("record snapshot time: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot returns the stored task list in its original response order
// together with the time it was fetched. An empty cache returns no tasks
// and a zero time, not an error.
func (s *Store) LoadSnapshot(ctx context.Context) ([]model.Task, time.Time, error) {
	var fetchedAt time.Time
	err := s.DB.QueryRowContext(ctx, "SELECT fetched_at FROM snapshot_meta WHERE id = 1").Scan(&fetchedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, time.Time{}, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, description, task_type, status, priority,
			due_date, due_time, estimated_hours, parent_task_id,
			case_id, case_number, case_title,
			assignee_id, assignee_first_name, assignee_last_name,
			subtasks_json, created_at, completed_at
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, time.Time{}, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	return tasks, fetchedAt, nil
}

func scanTask(rows *sql.Rows) (model.Task, error) {
	var task model.Task
	var description, dueDate, dueTime, parentTaskID sql.NullString
	var caseID, caseNumber, caseTitle sql.NullString
	var estimatedHours sql.NullFloat64
	var subtasksJSON string
	var completedAt sql.NullTime

	err := rows.Scan(
		&task.ID, &task.Title, &description, &task.TaskType, &task.Status, &task.Priority,
		&dueDate, &dueTime, &estimatedHours, &parentTaskID,
		&caseID, &caseNumber, &caseTitle,
		&task.Assignee.ID, &task.Assignee.FirstName, &task.Assignee.LastName,
		&subtasksJSON, &task.CreatedAt, &completedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	task.Description = stringPtr(description)
	task.DueDate = stringPtr(dueDate)
	task.DueTime = stringPtr(dueTime)
	task.ParentTaskID = stringPtr(parentTaskID)
	if estimatedHours.Valid {
		task.EstimatedHours = &estimatedHours.Float64
	}
	if caseID.Valid {
		task.Case = &model.Case{ID: caseID.String, CaseNumber: caseNumber.String, Title: caseTitle.String}
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	if err := json.Unmarshal([]byte(subtasksJSON), &task.Subtasks); err != nil {
		return model.Task{}, fmt.Errorf("decode subtasks for %s: %w", task.ID, err)
	}

	return task, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	result := value.String
	return &result
}

// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Task はユーザーが所有するタスクを表す。
// UserIDが所有者であり、アクセス制御の唯一の根拠となる。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	// TaskStatusTodo は未着手。
	TaskStatusTodo TaskStatus = "TODO"
	// TaskStatusInProgress は作業中。
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	// TaskStatusDone は完了。
	TaskStatusDone TaskStatus = "DONE"
)

// ParseTaskStatus は文字列をTaskStatusに変換する。
// 大文字小文字は区別しない。未知の値の場合はfalseを返す。
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TaskStatusTodo:
		return TaskStatusTodo, true
	case TaskStatusInProgress:
		return TaskStatusInProgress, true
	case TaskStatusDone:
		return TaskStatusDone, true
	default:
		return "", false
	}
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, status, created_at, updated_at`

// ListByOwner はユーザーのタスク一覧をcreated_at降順で返す。
// statusが空の場合は全件を返す。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, ownerID string, status model.TaskStatus) ([]*model.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+taskColumns+` FROM tasks
			 WHERE user_id = $1
			 ORDER BY created_at DESC`,
			ownerID,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+taskColumns+` FROM tasks
			 WHERE user_id = $1 AND status = $2
			 ORDER BY created_at DESC`,
			ownerID, string(status),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// FindByIDAndOwner はIDと所有者IDでタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return task, nil
}

// ExistsByID は所有者に関係なく指定IDのタスクが存在するかを返す。
func (r *PostgresTaskRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("タスクの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタスクのタイトル、説明、ステータスを更新する。
// 所有者の変更は行わない。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = $3, description = $4, status = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("タスクが見つかりません: %s", task.ID)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("タスクが見つかりません: %s", id)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var status string
	if err := s.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &status, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.Status = model.TaskStatus(status)
	return task, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)

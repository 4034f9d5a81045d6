// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail はusers.emailの一意制約違反を表す。
// 同一メールアドレスでの同時サインアップの敗者に返る。
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository はユーザー（認証情報）データの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	// 比較は大文字小文字を区別する完全一致。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsByEmail は指定メールアドレスのユーザーが存在するかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はユーザーを作成する。
	// 一意制約違反の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// 取得系はすべて所有者IDでスコープする。
type TaskRepository interface {
	// ListByOwner はユーザーのタスク一覧をcreated_at降順で返す。
	// statusが空の場合は全件を返す。
	ListByOwner(ctx context.Context, ownerID string, status model.TaskStatus) ([]*model.Task, error)

	// FindByIDAndOwner はIDと所有者IDでタスクを取得する。
	// 存在しない場合と他ユーザー所有の場合はどちらもnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Task, error)

	// ExistsByID は所有者に関係なく指定IDのタスクが存在するかを返す。
	ExistsByID(ctx context.Context, id string) (bool, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクのタイトル、説明、ステータスを更新する。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error
}

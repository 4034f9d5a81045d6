// Package task はユーザー単位のタスク管理のドメインロジックを提供する。
// すべての操作は認証済みユーザーの所有するタスクに限定される。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// 入力値の上限
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxStatusLength      = 20
)

// 操作種別（メトリクスのラベル）
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// CreateInput はタスク作成の入力。
// Statusが空または不正な場合はTODOとして作成する。
type CreateInput struct {
	Title       string
	Description string
	Status      string
}

// UpdateInput はタスク更新の入力。
// Statusは必須で、TODO/IN_PROGRESS/DONE以外はエラーとする。
type UpdateInput struct {
	Title       string
	Description string
	Status      string
}

// Validate は入力値を検証する。
func (in CreateInput) Validate() error {
	return validateFields(in.Title, in.Description, validation.Validate(in.Status, validation.RuneLength(0, MaxStatusLength)))
}

// Validate は入力値を検証する。ステータス値の妥当性は検証しない。
func (in UpdateInput) Validate() error {
	return validateFields(in.Title, in.Description,
		validation.Validate(strings.TrimSpace(in.Status), validation.Required, validation.RuneLength(0, MaxStatusLength)))
}

// validateFields はタイトルと説明を検証し、statusErrと合わせて返す。
func validateFields(title, description string, statusErr error) error {
	err := validation.Errors{
		"title":       validation.Validate(strings.TrimSpace(title), validation.Required, validation.RuneLength(0, MaxTitleLength)),
		"description": validation.Validate(description, validation.RuneLength(0, MaxDescriptionLength)),
		"status":      statusErr,
	}.Filter()
	if err != nil {
		return model.NewValidationError(err.Error())
	}
	return nil
}

// Service はタスク管理のサービス層。
type Service struct {
	repo    repository.TaskRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceを生成する。
// mcがnilの場合はメトリクスを記録しない。
func NewService(repo repository.TaskRepository, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		metrics: mc,
		now:     time.Now,
	}
}

// List はユーザーのタスク一覧を作成日時の降順で返す。
// statusFilterはTODO/IN_PROGRESS/DONE（大文字小文字を区別しない）のいずれかで絞り込む。
// 空、"All"、未知の値の場合は絞り込まない。
func (s *Service) List(ctx context.Context, p *model.Principal, statusFilter string) ([]*model.Task, error) {
	if p == nil {
		return nil, model.NewUnauthenticatedError()
	}

	status, _ := model.ParseTaskStatus(statusFilter)
	tasks, err := s.repo.ListByOwner(ctx, p.UserID, status)
	if err != nil {
		s.metrics.RecordTaskOperation(opList, metrics.OutcomeFailure)
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation(opList, metrics.OutcomeSuccess)
	return tasks, nil
}

// Get は指定IDのタスクを返す。
// 他ユーザーのタスクは存在しないタスクと同様にNotFoundとなる。
func (s *Service) Get(ctx context.Context, p *model.Principal, taskID string) (*model.Task, error) {
	t, err := s.findOwned(ctx, p, taskID, opGet)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTaskOperation(opGet, metrics.OutcomeSuccess)
	return t, nil
}

// Create はタスクを作成する。所有者は認証済みユーザーになる。
func (s *Service) Create(ctx context.Context, p *model.Principal, in CreateInput) (*model.Task, error) {
	if p == nil {
		return nil, model.NewUnauthenticatedError()
	}

	if err := in.Validate(); err != nil {
		s.metrics.RecordTaskOperation(opCreate, metrics.OutcomeInvalid)
		return nil, err
	}

	status, ok := model.ParseTaskStatus(in.Status)
	if !ok {
		status = model.TaskStatusTodo
	}

	now := s.now()
	t := &model.Task{
		ID:          uuid.New().String(),
		UserID:      p.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.metrics.RecordTaskOperation(opCreate, metrics.OutcomeFailure)
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation(opCreate, metrics.OutcomeSuccess)
	slog.Info("task created",
		slog.String("task_id", t.ID),
		slog.String("user_id", p.UserID),
	)
	return t, nil
}

// Update はタスクのタイトル、説明、ステータスを更新する。
// 他ユーザーのタスクは存在しないタスクと同様にNotFoundとなる。
func (s *Service) Update(ctx context.Context, p *model.Principal, taskID string, in UpdateInput) (*model.Task, error) {
	if p == nil {
		return nil, model.NewUnauthenticatedError()
	}

	if err := in.Validate(); err != nil {
		s.metrics.RecordTaskOperation(opUpdate, metrics.OutcomeInvalid)
		return nil, err
	}

	// ステータス値の判定は所有タスクの取得後に行う
	t, err := s.findOwned(ctx, p, taskID, opUpdate)
	if err != nil {
		return nil, err
	}

	status, ok := model.ParseTaskStatus(in.Status)
	if !ok {
		s.metrics.RecordTaskOperation(opUpdate, metrics.OutcomeInvalid)
		return nil, model.NewInvalidStatusError(in.Status)
	}

	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	t.Status = status
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		s.metrics.RecordTaskOperation(opUpdate, metrics.OutcomeFailure)
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation(opUpdate, metrics.OutcomeSuccess)
	slog.Info("task updated",
		slog.String("task_id", t.ID),
		slog.String("user_id", p.UserID),
	)
	return t, nil
}

// Delete はタスクを削除する。
// 読み取り・更新と異なり、タスクが存在するが他ユーザーの所有である場合はForbiddenを返す。
// 存在しない場合はNotFoundを返す。
func (s *Service) Delete(ctx context.Context, p *model.Principal, taskID string) error {
	if p == nil {
		return model.NewUnauthenticatedError()
	}

	exists, err := s.repo.ExistsByID(ctx, taskID)
	if err != nil {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeFailure)
		return fmt.Errorf("タスクの存在確認に失敗しました: %w", err)
	}
	if !exists {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeNotFound)
		return model.NewTaskNotFoundError(taskID)
	}

	t, err := s.repo.FindByIDAndOwner(ctx, taskID, p.UserID)
	if err != nil {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeFailure)
		return fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeForbidden)
		slog.Warn("task delete forbidden",
			slog.String("task_id", taskID),
			slog.String("user_id", p.UserID),
		)
		return model.NewForbiddenError()
	}
	if err := auth.Authorize(p, t.UserID); err != nil {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeForbidden)
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeFailure)
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation(opDelete, metrics.OutcomeSuccess)
	slog.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", p.UserID),
	)
	return nil
}

// findOwned は所有者で絞り込んでタスクを取得し、所有者チェックを行う。
// 見つからない場合はNotFoundを返す。
func (s *Service) findOwned(ctx context.Context, p *model.Principal, taskID, op string) (*model.Task, error) {
	if p == nil {
		return nil, model.NewUnauthenticatedError()
	}

	t, err := s.repo.FindByIDAndOwner(ctx, taskID, p.UserID)
	if err != nil {
		s.metrics.RecordTaskOperation(op, metrics.OutcomeFailure)
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		s.metrics.RecordTaskOperation(op, metrics.OutcomeNotFound)
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if err := auth.Authorize(p, t.UserID); err != nil {
		s.metrics.RecordTaskOperation(op, metrics.OutcomeForbidden)
		return nil, err
	}
	return t, nil
}

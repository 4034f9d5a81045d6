package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, p *model.Principal, statusFilter string) ([]*model.Task, error)
	Get(ctx context.Context, p *model.Principal, taskID string) (*model.Task, error)
	Create(ctx context.Context, p *model.Principal, in task.CreateInput) (*model.Task, error)
	Update(ctx context.Context, p *model.Principal, taskID string, in task.UpdateInput) (*model.Task, error)
	Delete(ctx context.Context, p *model.Principal, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// taskIDParam はパスパラメータのタスクIDを検証して返す。
// UUID形式でない場合は400レスポンスを書き込んでfalseを返す。
func taskIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("タスクIDの形式が正しくありません"))
		return "", false
	}
	return id.String(), true
}

// ListTasks はタスク一覧を返す。
// GET /api/tasks?status=TODO|IN_PROGRESS|DONE
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), p, r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTask はタスク詳細を返す。
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), p, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// CreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), p, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

// UpdateTask はタスクを更新する。
// PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), p, taskID, task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

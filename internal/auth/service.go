// Package auth はパスワードハッシュ、JWTの発行・検証、サインアップ/サインイン、
// 所有者チェックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// 入力値の上限・下限
const (
	MinPasswordLength = 6
	// MaxPasswordBytes はbcryptが扱える入力長の上限。
	MaxPasswordBytes = 72
	MaxEmailLength   = 255
	MaxNameLength    = 100
)

// dummyPassword はメールアドレス未登録時の照合に使うダミー。
const dummyPassword = "taskman-dummy-password"

// TokenIssuer はトークン発行のインターフェース。
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

// SignupInput はサインアップの入力。
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Validate は入力値を検証する。
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(0, MaxEmailLength), is.Email),
		validation.Field(&in.Password,
			validation.Required,
			validation.RuneLength(MinPasswordLength, 0),
			validation.Length(0, MaxPasswordBytes),
		),
		validation.Field(&in.Name, validation.RuneLength(0, MaxNameLength)),
	)
}

// SigninInput はサインインの入力。
type SigninInput struct {
	Email    string
	Password string
}

// Validate は入力値を検証する。
func (in SigninInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// PublicUser は外部に公開してよいユーザー情報。パスワードハッシュを含まない。
type PublicUser struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// NewPublicUser はUserからPublicUserを生成する。
func NewPublicUser(u *model.User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResult はサインアップ/サインイン成功時の結果。
type AuthResult struct {
	User  PublicUser
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	metrics  metrics.MetricsCollector
	now      func() time.Time

	// dummyHash は未登録メールアドレスの照合に使う。
	dummyHash string
}

// NewService はServiceを生成する。
// mcがnilの場合はメトリクスを記録しない。
// 未登録メールアドレス用のダミーハッシュは生成時に作成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		slog.Error("failed to generate dummy password hash", slog.String("error", err.Error()))
	}
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   mc,
		now:       time.Now,
		dummyHash: dummyHash,
	}
}

// Signup は新規ユーザーを登録し、トークンを発行する。
// メールアドレスが登録済みの場合はDuplicateIdentityエラーを返す。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		s.metrics.RecordSignup(metrics.OutcomeInvalid)
		return nil, model.NewValidationError(err.Error())
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeFailure)
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		s.metrics.RecordSignup(metrics.OutcomeDuplicate)
		slog.Info("signup rejected", slog.String("reason", "duplicate_email"))
		return nil, model.NewDuplicateIdentityError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeFailure)
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 同一メールアドレスでの同時サインアップはDBの一意制約で敗者が決まる
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordSignup(metrics.OutcomeDuplicate)
			slog.Info("signup rejected", slog.String("reason", "duplicate_email_race"))
			return nil, model.NewDuplicateIdentityError()
		}
		s.metrics.RecordSignup(metrics.OutcomeFailure)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeFailure)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordSignup(metrics.OutcomeSuccess)
	slog.Info("user signed up", slog.String("user_id", user.ID))

	return &AuthResult{User: NewPublicUser(user), Token: token}, nil
}

// Signin はメールアドレスとパスワードで認証し、トークンを発行する。
// メールアドレス未登録とパスワード不一致はどちらも同じInvalidCredentialsエラーを返す。
// 未登録の場合もダミーハッシュで照合を行い、応答時間を揃える。
func (s *Service) Signin(ctx context.Context, in SigninInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		s.metrics.RecordSignin(metrics.OutcomeInvalid)
		return nil, model.NewValidationError(err.Error())
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.RecordSignin(metrics.OutcomeFailure)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		s.hasher.Verify(in.Password, s.dummyHash)
		s.metrics.RecordSignin(metrics.OutcomeFailure)
		slog.Warn("signin failed", slog.String("reason", "unknown_email"))
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.metrics.RecordSignin(metrics.OutcomeFailure)
		slog.Warn("signin failed",
			slog.String("reason", "password_mismatch"),
			slog.String("user_id", user.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.RecordSignin(metrics.OutcomeFailure)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordSignin(metrics.OutcomeSuccess)
	slog.Info("user signed in", slog.String("user_id", user.ID))

	return &AuthResult{User: NewPublicUser(user), Token: token}, nil
}

// CurrentUser は認証済みユーザーの公開情報を返す。
func (s *Service) CurrentUser(ctx context.Context, p *model.Principal) (*PublicUser, error) {
	if p == nil {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	pub := NewPublicUser(user)
	return &pub, nil
}

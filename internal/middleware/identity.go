// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
)

const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenValidator はBearerトークンの検証に必要なインターフェース。
// 有効な場合はsubject（ユーザーID）を返す。
type TokenValidator interface {
	Validate(token string) (string, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewIdentityMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
//
// このミドルウェアはリクエストを拒否しない。ヘッダーがない、形式が不正、
// トークンが無効、ユーザーが存在しない場合は未認証のまま次に渡す。
// コンテキストに認証済みユーザーが既にある場合は上書きしない。
// 認証必須のルートはRequireIdentityで保護する。
func NewIdentityMiddleware(validator TokenValidator, finder UserFinder, mc metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. 既に認証済みなら何もしない（最初の解決を優先）
			if _, ok := PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			// 2. Authorizationヘッダーからトークンを取得
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// 3. トークンを検証
			userID, err := validator.Validate(token)
			if err != nil {
				mc.RecordTokenValidation(false)
				next.ServeHTTP(w, r)
				return
			}
			mc.RecordTokenValidation(true)

			// 4. ユーザーを解決（発行後に削除されている場合は未認証扱い）
			user, err := finder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to resolve token subject",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			// 5. 認証済みユーザーをコンテキストに注入
			ctx := ContextWithPrincipal(r.Context(), model.NewPrincipal(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity は認証済みユーザーがいないリクエストに401を返すミドルウェア。
// 認証必須のルートグループに適用するアクセスポリシー層。
func RequireIdentity() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				WriteUnauthenticated(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext はリクエストコンテキストから認証済みユーザーを取得する。
func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// ContextWithPrincipal はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーのIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return p.UserID, nil
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/calcman/internal/metrics"
	"github.com/hitoshi/calcman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService        AuthServiceInterface
	CalculationService CalculationServiceInterface
	UserService        UserServiceInterface

	// ヘルスチェック
	DB Pinger

	// メトリクス（nil可）
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→（認証ルートのみ）AuthMiddleware → RateLimit(General)
//
// 認証ルート（/auth/*）、/health、/metricsはBearerトークン検証の外に配置する。
// GET /auth/meのみ認証済みグループに含める。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	calcHandler := NewCalculationHandler(deps.CalculationService, deps.Collector)
	userHandler := NewUserHandler(deps.UserService)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)

		// POST /auth/login - ログイン（試行専用レート制限を追加）
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		r.Post("/refresh", authHandler.RefreshToken)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenValidator, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/auth/me", authHandler.Me)

		// 計算管理
		r.Route("/api/calculations", func(r chi.Router) {
			r.Post("/", calcHandler.CreateCalculation)
			r.Get("/", calcHandler.ListCalculations)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", calcHandler.GetCalculation)
				r.Put("/", calcHandler.UpdateCalculation)
				r.Delete("/", calcHandler.DeleteCalculation)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}

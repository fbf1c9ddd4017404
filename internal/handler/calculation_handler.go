package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/calcman/internal/metrics"
	"github.com/hitoshi/calcman/internal/middleware"
	"github.com/hitoshi/calcman/internal/model"
)

// defaultCalculationsPerPage は計算一覧の1回の取得件数（デフォルト）。
const defaultCalculationsPerPage = 50

// maxCalculationsPerPage は計算一覧の1回の取得件数の上限。
const maxCalculationsPerPage = 100

// CalculationServiceInterface は計算ハンドラーが必要とするサービスインターフェース。
type CalculationServiceInterface interface {
	// Create は計算を作成する。結果はサーバー側で計算される。
	Create(ctx context.Context, userID, typeTag string, inputs []float64) (*model.Calculation, error)
	// List は認証済みユーザーの計算一覧をcreated_at降順で返す。
	List(ctx context.Context, userID, typeTag string, limit, offset int) ([]*model.Calculation, error)
	// Get は指定IDの計算を返す。非所有者にはNotFoundを返す。
	Get(ctx context.Context, userID, calcID string) (*model.Calculation, error)
	// Update は入力値を差し替え、結果を再計算して保存する。
	Update(ctx context.Context, userID, calcID string, inputs []float64) (*model.Calculation, error)
	// Delete は指定IDの計算を削除する。
	Delete(ctx context.Context, userID, calcID string) error
}

// CalculationHandler は計算管理のHTTPハンドラー。
type CalculationHandler struct {
	service   CalculationServiceInterface
	collector metrics.MetricsCollector
}

// NewCalculationHandler はCalculationHandlerを生成する。collectorはnil可。
func NewCalculationHandler(service CalculationServiceInterface, collector metrics.MetricsCollector) *CalculationHandler {
	return &CalculationHandler{
		service:   service,
		collector: collector,
	}
}

// --- リクエスト・レスポンス型 ---

// createCalculationRequest は計算作成リクエストのボディ。
// 結果は含まない。クライアントから与えられた結果は決して信用しない。
type createCalculationRequest struct {
	Type   string    `json:"type"`
	Inputs []float64 `json:"inputs"`
}

// updateCalculationRequest は計算更新リクエストのボディ。
// 種別は変更できず、入力値のみ差し替え可能。
type updateCalculationRequest struct {
	Inputs []float64 `json:"inputs"`
}

// calculationResponse は計算レコードのAPIレスポンス。
type calculationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Inputs    []float64 `json:"inputs"`
	Result    float64   `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// calculationListResponse は計算一覧のレスポンス。
type calculationListResponse struct {
	Calculations []calculationResponse `json:"calculations"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// CreateCalculation は計算を作成する。
// POST /api/calculations
func (h *CalculationHandler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createCalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	calc, err := h.service.Create(r.Context(), userID, req.Type, req.Inputs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordCalculation(string(calc.Type))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCalculationResponse(calc))
}

// ListCalculations は認証済みユーザーの計算一覧を取得する。
// GET /api/calculations?type=xxx&limit=50&offset=0
func (h *CalculationHandler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	typeTag := r.URL.Query().Get("type")
	limit := parsePositiveIntParam(r.URL.Query().Get("limit"), defaultCalculationsPerPage)
	if limit > maxCalculationsPerPage {
		limit = maxCalculationsPerPage
	}
	offset := parsePositiveIntParam(r.URL.Query().Get("offset"), 0)

	calcs, err := h.service.List(r.Context(), userID, typeTag, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := calculationListResponse{
		Calculations: make([]calculationResponse, 0, len(calcs)),
		Limit:        limit,
		Offset:       offset,
	}
	for _, calc := range calcs {
		resp.Calculations = append(resp.Calculations, toCalculationResponse(calc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetCalculation は計算詳細を取得する。
// GET /api/calculations/:id
func (h *CalculationHandler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	calcID := chi.URLParam(r, "id")

	calc, err := h.service.Get(r.Context(), userID, calcID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCalculationResponse(calc))
}

// UpdateCalculation は計算の入力値を更新する。結果はサーバー側で再計算される。
// PUT /api/calculations/:id
func (h *CalculationHandler) UpdateCalculation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	calcID := chi.URLParam(r, "id")

	var req updateCalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	calc, err := h.service.Update(r.Context(), userID, calcID, req.Inputs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCalculationResponse(calc))
}

// DeleteCalculation は計算を削除する。
// DELETE /api/calculations/:id
func (h *CalculationHandler) DeleteCalculation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	calcID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, calcID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toCalculationResponse はmodel.CalculationからAPIレスポンスに変換する。
func toCalculationResponse(calc *model.Calculation) calculationResponse {
	return calculationResponse{
		ID:        calc.ID,
		UserID:    calc.UserID,
		Type:      string(calc.Type),
		Inputs:    calc.Inputs,
		Result:    calc.Result,
		CreatedAt: calc.CreatedAt,
		UpdatedAt: calc.UpdatedAt,
	}
}

// parsePositiveIntParam はクエリパラメータを非負整数として解析する。
// 空文字・解析不能・負数の場合はフォールバック値を返す。
func parsePositiveIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

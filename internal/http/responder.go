package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/corevo-scheduler/internal/application"
	"github.com/example/corevo-scheduler/internal/gcal"
)

var (
	errBadRequestBody  = errors.New("無効なリクエスト形式です。")
	errMissingDate     = errors.New("date パラメータを指定してください。")
	errInvalidDate     = errors.New("date は YYYY-MM-DD 形式で指定してください。")
	errInvalidDuration = errors.New("duration は正の整数（分）で指定してください。")
	errInvalidRange    = errors.New("from / to は RFC 3339 形式で指定してください。")
	errMissingTenant   = errors.New("テナントを指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors into their HTTP shape.
// Anything unclassified is treated as an upstream calendar provider failure.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	logger := r.loggerFor(ctx)

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrConnectionInactive):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CONNECTION_INACTIVE",
			Message:   "カレンダー連携が無効化されています。再連携してください。",
		})
	case errors.Is(err, application.ErrNotSynced):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "NOT_SYNCED",
			Message:   "この予約はまだカレンダーに同期されていません。",
		})
	case errors.Is(err, gcal.ErrProviderNotConfigured):
		logger.ErrorContext(ctx, "calendar provider not configured", "error", err)
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: "カレンダー連携が設定されていません。"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		logger.ErrorContext(ctx, "calendar operation failed", "error", err)
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{Message: "外部カレンダーサービスでエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	case http.StatusBadGateway:
		return "外部カレンダーサービスでエラーが発生しました。"
	case http.StatusServiceUnavailable:
		return "サービスを一時的に利用できません。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

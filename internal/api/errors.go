// Package api описывает публичный формат запросов и ответов маркетплейса.
// Его используют оба транспорта: gin и gRPC с JSON-кодеком.
package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPStatus переводит ошибку в HTTP-статус.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	kind, _ := domain.Describe(err)
	switch kind {
	case domain.KindValidation, domain.KindState:
		return http.StatusBadRequest
	case domain.KindActor:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode переводит ошибку в код gRPC.
func GRPCCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return codes.Unauthenticated
	}
	kind, _ := domain.Describe(err)
	switch kind {
	case domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindState:
		return codes.FailedPrecondition
	case domain.KindActor:
		return codes.PermissionDenied
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConcurrency:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// NewErrorResponse строит тело ответа. Текст внутренних ошибок наружу не отдаётся.
func NewErrorResponse(err error) ErrorResponse {
	kind, code := domain.Describe(err)
	if kind == domain.KindInternal {
		return ErrorResponse{Code: code, Message: "internal error"}
	}
	return ErrorResponse{Code: code, Message: err.Error()}
}

// RequireSelf проверяет, что вызывающий действует от своего имени.
func RequireSelf(caller, userID string) error {
	if caller == "" || caller != userID {
		return domain.NewError(domain.ErrForbidden, "caller %s cannot act on behalf of %s", caller, userID)
	}
	return nil
}

// RequireParticipant пропускает только покупателя или производителя заказа.
func RequireParticipant(caller string, order domain.Order) error {
	if caller != "" && (caller == order.ConsumerID || caller == order.ProducerID) {
		return nil
	}
	return domain.NewError(domain.ErrForbidden, "caller %s is not a participant of order %s", caller, order.ID)
}

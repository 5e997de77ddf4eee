package domain

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует ошибки предметной области для маппинга на транспорт.
type ErrorKind string

const (
	// KindActor — неизвестный пользователь или пользователь с неподходящей ролью.
	KindActor ErrorKind = "actor"
	// KindNotFound — запрошенная сущность отсутствует или принадлежит другому производителю.
	KindNotFound ErrorKind = "not_found"
	// KindValidation — нарушение бизнес-правил входных данных.
	KindValidation ErrorKind = "validation"
	// KindState — недопустимый переход статуса.
	KindState ErrorKind = "state"
	// KindConcurrency — конкурентное изменение, запрос можно повторить.
	KindConcurrency ErrorKind = "concurrency"
	// KindInternal — всё остальное (инфраструктура, непредвиденные сбои).
	KindInternal ErrorKind = "internal"
)

var (
	// ErrInvalidActor возвращается, если пользователь не найден или имеет другую роль.
	ErrInvalidActor = errors.New("invalid actor")
	// ErrForbidden — вызывающий пытается действовать от имени другого пользователя.
	ErrForbidden = errors.New("forbidden")

	// ErrProductNotFound возвращается, если товар не найден или не принадлежит производителю.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrShippingRequestNotFound возвращается, если заявка на перевозку не найдена.
	ErrShippingRequestNotFound = errors.New("shipping request not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnitMismatch — единица измерения в запросе не совпадает с единицей товара.
	ErrUnitMismatch = errors.New("unit mismatch")
	// ErrInsufficientStock — остатка товара недостаточно для списания.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPriceMismatch — цена в запросе устарела или указана в другой валюте.
	ErrPriceMismatch = errors.New("price mismatch")
	// ErrNonPositiveAmount — количество должно быть строго больше нуля.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrPastRequiredDate — дата перевозки в прошлом.
	ErrPastRequiredDate = errors.New("required date is in the past")
	// ErrDuplicateProductName — у производителя уже есть товар с таким названием.
	ErrDuplicateProductName = errors.New("duplicate product name")
	// ErrInvalidValue — значение не прошло базовую валидацию (пустое, отрицательное, неверный формат).
	ErrInvalidValue = errors.New("invalid value")
	// ErrEmailTaken — email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials — неверная пара email/пароль или невалидный токен.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrItemsRequired — заказ без позиций.
	ErrItemsRequired = errors.New("order must contain at least one item")

	// ErrInvalidTransition — переход статуса запрещён.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStockConflict — остаток товара изменился между проверкой и списанием.
	ErrStockConflict = errors.New("stock changed concurrently")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении агрегата.
	ErrVersionConflict = errors.New("version conflict")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован с тем же телом запроса.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — ключ не найден или истёк.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

type errorInfo struct {
	kind ErrorKind
	code string
}

var registry = map[error]errorInfo{
	ErrInvalidActor:            {KindActor, "InvalidActor"},
	ErrForbidden:               {KindActor, "Forbidden"},
	ErrProductNotFound:         {KindNotFound, "ProductNotFound"},
	ErrOrderNotFound:           {KindNotFound, "OrderNotFound"},
	ErrShippingRequestNotFound: {KindNotFound, "ShippingRequestNotFound"},
	ErrUserNotFound:            {KindNotFound, "UserNotFound"},
	ErrUnitMismatch:            {KindValidation, "UnitMismatch"},
	ErrInsufficientStock:       {KindValidation, "InsufficientStock"},
	ErrPriceMismatch:           {KindValidation, "PriceMismatch"},
	ErrNonPositiveAmount:       {KindValidation, "NonPositiveAmount"},
	ErrPastRequiredDate:        {KindValidation, "PastRequiredDate"},
	ErrDuplicateProductName:    {KindValidation, "DuplicateProductName"},
	ErrInvalidValue:            {KindValidation, "InvalidValue"},
	ErrEmailTaken:              {KindValidation, "EmailTaken"},
	ErrInvalidCredentials:      {KindValidation, "InvalidCredentials"},
	ErrItemsRequired:           {KindValidation, "ItemsRequired"},
	ErrInvalidTransition:       {KindState, "InvalidTransition"},
	ErrStockConflict:           {KindConcurrency, "StockConflict"},
	ErrVersionConflict:         {KindConcurrency, "VersionConflict"},

	ErrIdempotencyKeyRequired:      {KindValidation, "IdempotencyKeyRequired"},
	ErrIdempotencyHashMismatch:     {KindValidation, "IdempotencyKeyReused"},
	ErrIdempotencyKeyAlreadyExists: {KindConcurrency, "RequestInProgress"},
}

// Error — типизированная ошибка предметной области.
// Err всегда содержит один из sentinel-ов пакета, поэтому errors.Is работает как обычно.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError оборачивает sentinel в Error с человекочитаемым сообщением.
func NewError(sentinel error, format string, args ...any) error {
	info, ok := registry[sentinel]
	if !ok {
		info = errorInfo{kind: KindInternal, code: "Internal"}
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{
		Kind:    info.kind,
		Code:    info.code,
		Message: msg,
		Err:     sentinel,
	}
}

// Describe возвращает вид и код ошибки. Неизвестные ошибки считаются внутренними.
func Describe(err error) (ErrorKind, string) {
	if err == nil {
		return "", ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, de.Code
	}
	for sentinel, info := range registry {
		if errors.Is(err, sentinel) {
			return info.kind, info.code
		}
	}
	return KindInternal, "Internal"
}

// ErrorFromCode восстанавливает типизированную ошибку по коду из Describe.
// Используется при повторе запроса, результат которого был сохранён ранее.
func ErrorFromCode(code, message string) error {
	for sentinel, info := range registry {
		if info.code == code {
			return &Error{Kind: info.kind, Code: code, Message: message, Err: sentinel}
		}
	}
	return &Error{Kind: KindInternal, Code: "Internal", Message: message, Err: errReplayed}
}

var errReplayed = errors.New("request failed")

// IsKind проверяет, относится ли ошибка к указанному виду.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	got, _ := Describe(err)
	return got == kind
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsIdempotencyConflict сообщает, что ключ уже занят другим или незавершённым запросом.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// IsStockConflict проверяет, проиграл ли запрос гонку за остаток товара.
func IsStockConflict(err error) bool {
	return errors.Is(err, ErrStockConflict)
}

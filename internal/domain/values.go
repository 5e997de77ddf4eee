package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// UnitKilogram — единица измерения, по которой считается статистика проданного веса.
const UnitKilogram = "kg"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Quantity — количество товара с единицей измерения.
// Значение неотрицательное, единица хранится в нижнем регистре.
type Quantity struct {
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit"`
}

// NewQuantity валидирует и нормализует количество.
func NewQuantity(value decimal.Decimal, unit string) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, NewError(ErrInvalidValue, "quantity cannot be negative")
	}
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		return Quantity{}, NewError(ErrInvalidValue, "unit of measure is required")
	}
	return Quantity{Value: value, Unit: unit}, nil
}

// Equal сравнивает количества по значению и единице.
func (q Quantity) Equal(other Quantity) bool {
	return q.Unit == other.Unit && q.Value.Equal(other.Value)
}

// SameUnit сравнивает единицы без учёта регистра.
func (q Quantity) SameUnit(unit string) bool {
	return strings.EqualFold(q.Unit, strings.TrimSpace(unit))
}

// Reduce возвращает новое количество, уменьшенное на amount.
func (q Quantity) Reduce(amount decimal.Decimal) (Quantity, error) {
	if !amount.IsPositive() {
		return q, NewError(ErrInsufficientStock, "amount to reduce must be positive, got %s", amount)
	}
	if q.Value.LessThan(amount) {
		return q, NewError(ErrInsufficientStock, "requested %s %s, available %s %s", amount, q.Unit, q.Value, q.Unit)
	}
	return Quantity{Value: q.Value.Sub(amount), Unit: q.Unit}, nil
}

// Increase возвращает новое количество, увеличенное на amount.
func (q Quantity) Increase(amount decimal.Decimal) (Quantity, error) {
	if !amount.IsPositive() {
		return q, NewError(ErrNonPositiveAmount, "amount to increase must be positive, got %s", amount)
	}
	return Quantity{Value: q.Value.Add(amount), Unit: q.Unit}, nil
}

func (q Quantity) String() string {
	return q.Value.String() + " " + q.Unit
}

// Price — цена за единицу товара. Валюта хранится в верхнем регистре.
type Price struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// NewPrice валидирует и нормализует цену.
func NewPrice(value decimal.Decimal, currency string) (Price, error) {
	if value.IsNegative() {
		return Price{}, NewError(ErrInvalidValue, "price cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Price{}, NewError(ErrInvalidValue, "currency is required")
	}
	return Price{Value: value, Currency: currency}, nil
}

// Equal сравнивает цены по значению и валюте.
func (p Price) Equal(other Price) bool {
	return p.Currency == other.Currency && p.Value.Equal(other.Value)
}

// Matches проверяет, что клиент прислал актуальную цену.
func (p Price) Matches(value decimal.Decimal, currency string) bool {
	return p.Value.Equal(value) && strings.EqualFold(p.Currency, strings.TrimSpace(currency))
}

func (p Price) String() string {
	return p.Value.String() + " " + p.Currency
}

// Location — адрес погрузки или доставки.
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// NewLocation проверяет, что все части адреса заполнены.
func NewLocation(address, city, country string) (Location, error) {
	loc := Location{
		Address: strings.TrimSpace(address),
		City:    strings.TrimSpace(city),
		Country: strings.TrimSpace(country),
	}
	switch {
	case loc.Address == "":
		return Location{}, NewError(ErrInvalidValue, "address is required")
	case loc.City == "":
		return Location{}, NewError(ErrInvalidValue, "city is required")
	case loc.Country == "":
		return Location{}, NewError(ErrInvalidValue, "country is required")
	}
	return loc, nil
}

// Email — адрес электронной почты в нижнем регистре.
type Email string

// NewEmail валидирует формат и нормализует адрес.
func NewEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewError(ErrInvalidValue, "email is required")
	}
	if !emailPattern.MatchString(raw) {
		return "", NewError(ErrInvalidValue, "email %q has invalid format", raw)
	}
	return Email(strings.ToLower(raw)), nil
}

func (e Email) String() string {
	return string(e)
}

// PasswordHash — непрозрачный хеш пароля, открытый пароль в домен не попадает.
type PasswordHash string

// NewPasswordHash проверяет, что хеш не пустой.
func NewPasswordHash(raw string) (PasswordHash, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewError(ErrInvalidValue, "password hash is required")
	}
	return PasswordHash(raw), nil
}

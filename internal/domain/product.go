package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product — позиция каталога производителя с остатком и ценой.
type Product struct {
	ID          string
	ProducerID  string
	Name        string
	Description string
	Quantity    Quantity
	Price       Price
	// Version увеличивается при каждом сохранении и используется для compare-and-swap остатков.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct создаёт товар. ProducerID после создания не меняется.
func NewProduct(id, producerID, name, description string, qty Quantity, price Price, now time.Time) (Product, error) {
	if strings.TrimSpace(producerID) == "" {
		return Product{}, NewError(ErrInvalidValue, "producer id is required")
	}
	p := Product{
		ID:         id,
		ProducerID: producerID,
		CreatedAt:  now,
	}
	if err := p.UpdateDetails(name, description, qty, price, now); err != nil {
		return Product{}, err
	}
	return p, nil
}

// UpdateDetails заменяет название, описание, остаток и цену.
func (p *Product) UpdateDetails(name, description string, qty Quantity, price Price, now time.Time) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return NewError(ErrInvalidValue, "product name is required")
	}
	if description == "" {
		return NewError(ErrInvalidValue, "product description is required")
	}
	if qty.Unit == "" {
		return NewError(ErrInvalidValue, "product quantity is required")
	}
	if price.Currency == "" {
		return NewError(ErrInvalidValue, "product price is required")
	}
	p.Name = name
	p.Description = description
	p.Quantity = qty
	p.Price = price
	p.UpdatedAt = now
	return nil
}

// ReduceQuantity списывает amount с остатка.
func (p *Product) ReduceQuantity(amount decimal.Decimal) error {
	next, err := p.Quantity.Reduce(amount)
	if err != nil {
		return err
	}
	p.Quantity = next
	return nil
}

// IncreaseQuantity пополняет остаток.
func (p *Product) IncreaseQuantity(amount decimal.Decimal) error {
	next, err := p.Quantity.Increase(amount)
	if err != nil {
		return err
	}
	p.Quantity = next
	return nil
}

// BelongsTo проверяет владельца товара.
func (p Product) BelongsTo(producerID string) bool {
	return p.ProducerID == producerID
}

// SameName сравнивает названия без учёта регистра и крайних пробелов.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// StockReservation описывает списание остатка, проверенное по конкретной версии товара.
type StockReservation struct {
	ProductID string
	Amount    decimal.Decimal
	Unit      string
	// ExpectedVersion — версия товара на момент валидации. Ноль отключает проверку.
	ExpectedVersion int64
}

// MergeReservations объединяет резервы одного товара, сохраняя порядок первого появления.
// Все ненулевые ExpectedVersion одного товара должны совпадать, иначе ErrStockConflict.
// Единицы измерения сравниваются без учёта регистра.
func MergeReservations(reservations []StockReservation) ([]StockReservation, error) {
	merged := make([]StockReservation, 0, len(reservations))
	index := make(map[string]int, len(reservations))
	for _, r := range reservations {
		i, ok := index[r.ProductID]
		if !ok {
			index[r.ProductID] = len(merged)
			merged = append(merged, r)
			continue
		}
		m := &merged[i]
		if !strings.EqualFold(strings.TrimSpace(m.Unit), strings.TrimSpace(r.Unit)) {
			return nil, NewError(ErrUnitMismatch, "product %s reserved in %s and %s", r.ProductID, m.Unit, r.Unit)
		}
		switch {
		case m.ExpectedVersion == 0:
			m.ExpectedVersion = r.ExpectedVersion
		case r.ExpectedVersion != 0 && r.ExpectedVersion != m.ExpectedVersion:
			return nil, NewError(ErrStockConflict, "product %s validated at versions %d and %d", r.ProductID, m.ExpectedVersion, r.ExpectedVersion)
		}
		m.Amount = m.Amount.Add(r.Amount)
	}
	return merged, nil
}

// ApplyReservation проверяет версию, единицу и остаток и возвращает товар после списания.
// Используется реализациями PlacementStore под их блокировкой.
func ApplyReservation(p Product, r StockReservation, now time.Time) (Product, error) {
	if r.ExpectedVersion != 0 && p.Version != r.ExpectedVersion {
		return p, NewError(ErrStockConflict, "product %s changed: expected version %d, got %d", p.ID, r.ExpectedVersion, p.Version)
	}
	if !p.Quantity.SameUnit(r.Unit) {
		return p, NewError(ErrUnitMismatch, "product %s is measured in %s, requested %s", p.ID, p.Quantity.Unit, r.Unit)
	}
	if err := p.ReduceQuantity(r.Amount); err != nil {
		return p, err
	}
	p.UpdatedAt = now
	return p, nil
}

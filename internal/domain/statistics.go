package domain

import "github.com/shopspring/decimal"

// ProducerStatistics — сводные показатели продаж и перевозок производителя.
type ProducerStatistics struct {
	TotalSalesCount            int
	TotalSalesAmount           decimal.Decimal
	TotalProductsSoldKg        decimal.Decimal
	TotalTransportRequests     int
	CompletedTransportRequests int
	// TotalEnvironmentalImpact пока не рассчитывается и всегда равен нулю.
	TotalEnvironmentalImpact decimal.Decimal
}

// DashboardSummary — данные для главного экрана производителя.
type DashboardSummary struct {
	RegisteredProductsCount  int
	RequestedTransportsCount int
	CompletedOrdersCount     int
	TotalSalesAmount         decimal.Decimal
	TotalProductsSoldKg      decimal.Decimal
	EnvironmentalImpact      decimal.Decimal
}

// ComputeProducerStatistics агрегирует заказы и заявки одного производителя.
// Продажей считается любой заказ, статус не учитывается.
func ComputeProducerStatistics(orders []Order, requests []ShippingRequest) ProducerStatistics {
	stats := ProducerStatistics{
		TotalSalesAmount:         decimal.Zero,
		TotalProductsSoldKg:      decimal.Zero,
		TotalEnvironmentalImpact: decimal.Zero,
	}
	for _, o := range orders {
		stats.TotalSalesCount++
		stats.TotalSalesAmount = stats.TotalSalesAmount.Add(o.TotalAmount)
		stats.TotalProductsSoldKg = stats.TotalProductsSoldKg.Add(o.KilogramsSold())
	}
	stats.TotalTransportRequests = len(requests)
	for _, r := range requests {
		if r.Status == ShippingStatusCompleted {
			stats.CompletedTransportRequests++
		}
	}
	return stats
}

// ComputeDashboardSummary собирает сводку для дашборда.
func ComputeDashboardSummary(products []Product, orders []Order, requests []ShippingRequest) DashboardSummary {
	stats := ComputeProducerStatistics(orders, requests)
	summary := DashboardSummary{
		RegisteredProductsCount:  len(products),
		RequestedTransportsCount: len(requests),
		TotalSalesAmount:         stats.TotalSalesAmount,
		TotalProductsSoldKg:      stats.TotalProductsSoldKg,
		EnvironmentalImpact:      decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == OrderStatusCompleted {
			summary.CompletedOrdersCount++
		}
	}
	return summary
}

package domain

// UserRepository описывает справочник пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя. Возвращает ErrEmailTaken, если email занят.
	Create(user User) error
	// Find возвращает пользователя; при отсутствии записи (User{}, false, nil).
	Find(id string) (User, bool, error)
	// FindByEmail ищет пользователя по нормализованному email.
	FindByEmail(email Email) (User, bool, error)
	// Save применяет обновления с учётом optimistic locking.
	Save(user User) error
}

// ProductRepository описывает каталог товаров.
type ProductRepository interface {
	// Create сохраняет новый товар.
	Create(product Product) error
	// Find возвращает товар; отсутствие записи не считается ошибкой.
	Find(id string) (Product, bool, error)
	// ListByProducer возвращает товары производителя, отсортированные по названию.
	ListByProducer(producerID string) ([]Product, error)
	// ExistsByNameForProducer проверяет название без учёта регистра.
	ExistsByNameForProducer(name, producerID string) (bool, error)
	// Save применяет обновления с учётом optimistic locking.
	Save(product Product) error
	// Delete удаляет товар.
	Delete(id string) error
	// ReserveStock атомарно списывает остатки по всем резервам или не меняет ничего.
	ReserveStock(reservations []StockReservation) error
	// ReleaseStock возвращает ранее списанные остатки (компенсация).
	ReleaseStock(reservations []StockReservation) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByConsumer возвращает заказы покупателя, новые первыми.
	ListByConsumer(consumerID string) ([]Order, error)
	// ListByProducer возвращает заказы производителя, новые первыми.
	ListByProducer(producerID string) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// ShippingRepository описывает хранилище заявок на перевозку.
type ShippingRepository interface {
	Create(request ShippingRequest) error
	// Get возвращает заявку или ErrShippingRequestNotFound.
	Get(id string) (ShippingRequest, error)
	// ListByProducer возвращает заявки производителя, новые первыми.
	ListByProducer(producerID string) ([]ShippingRequest, error)
	Save(request ShippingRequest) error
}

// PlacementStore объединяет списание остатков и создание агрегата в одну операцию:
// либо применяются все изменения, либо ни одного.
type PlacementStore interface {
	// CommitOrder списывает остатки по резервам и сохраняет заказ.
	CommitOrder(order Order, reservations []StockReservation) error
	// CommitShipping списывает остаток и сохраняет заявку на перевозку.
	CommitShipping(request ShippingRequest, reservation StockReservation) error
}

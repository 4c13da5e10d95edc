package models

import "time"

// Customer представляет клиента — организацию-арендатора, которой
// принадлежат подписки и профили пользователей. У клиента ровно один
// владелец (OwnerUID), удаление пользователя-владельца запрещено,
// пока на него ссылается клиент.
type Customer struct {
	ID        int       `json:"id"`         // Идентификатор клиента
	Name      string    `json:"name"`       // Название организации
	OwnerUID  string    `json:"owner_uid"`  // UID пользователя-владельца
	Credits   int       `json:"credits"`    // Остаток кредитов (квота из плана)
	CreatedAt time.Time `json:"created_at"` // Дата создания
}

// DummyCustomer используется для приёма данных из JSON-запроса
// на обновление клиента.
type DummyCustomer struct {
	Name string `json:"name" validate:"required,max=255"` // Название организации
}

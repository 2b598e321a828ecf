// cache реализует локальный кэш с ограниченным временем жизни записей.
//
// Контракт (общий для всех реализаций):
//   - запись хранится с абсолютным expiry = now + ttl;
//   - чтение после expiry ведёт себя как отсутствие значения и удаляет запись;
//   - битый сохранённый payload — это промах, а не ошибка;
//   - вычистка ленивая, только при чтении (фонового свипера нет);
//   - Get декодирует копию значения, поэтому вызывающие никогда не делят
//     изменяемые ссылки на кэшированные данные.
package cache

import (
	"context"
	"time"
)

// Cache — контракт кэша значений с TTL.
type Cache interface {
	// Get декодирует значение по ключу в dst и сообщает о его наличии.
	// Просроченная или нечитаемая запись удаляется и считается промахом.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set сохраняет значение с TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate удаляет запись по ключу (отсутствие ключа — не ошибка).
	Invalidate(ctx context.Context, key string) error
	// Close освобождает ресурсы реализации.
	Close() error
}

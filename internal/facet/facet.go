// facet отображает выбранный срез ленты (тег или категория) в изолированное
// состояние просмотра: форму запроса к серверу, ключ кэша «топа» и ключ
// трека пагинации. Разные фасеты никогда не делят курсоры и записи кэша.
package facet

import (
	"net/url"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// Plan — результат разрешения фасета.
type Plan struct {
	// CacheKey — семантический ключ кэшированного «топа» фасета,
	// например "top-by-tag:horror" или "top-by-category:travel".
	CacheKey string
	// TrackKey — ключ изолированного трека пагинации фасета.
	TrackKey string
}

// Resolve строит план для выбранного фасета.
// Для нулевого фасета возвращается нулевой план (фасетный трек не нужен).
func Resolve(f models.Facet) Plan {
	if f.IsZero() {
		return Plan{}
	}

	return Plan{
		CacheKey: "top-by-" + string(f.Kind) + ":" + f.Value,
		TrackKey: string(f.Kind) + ":" + f.Value,
	}
}

// Query возвращает фрагмент query-параметров выборки для фасета.
func Query(f models.Facet) url.Values {
	q := url.Values{}

	switch f.Kind {
	case models.FacetTag:
		q.Set("tag", f.Value)
	case models.FacetCategory:
		q.Set("category", f.Value)
	}

	return q
}

// ViewKey — имя проекции (view) в нормализованном сторе для фасетной выдачи,
// отделённое от нефасетной проекции того же контроллера.
func ViewKey(base string, f models.Facet) string {
	if f.IsZero() {
		return base
	}

	return base + "/facet/" + string(f.Kind) + ":" + f.Value
}

package calendar

// DefaultPageSize — размер страницы отчёта, если он не указан.
const DefaultPageSize = 50

// Page — одна страница отчёта по записям.
type Page[T any] struct {
	Items    []T
	Page     int // с 1
	PageSize int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// Paginate режет items на страницы. Номер страницы и размер <= 0 заменяются дефолтами,
// страница за концом списка возвращается пустой.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page = max(page, 1)

	total := len(items)
	// сравнение делением: (page-1)*pageSize может переполнить int
	from := total
	if page-1 <= total/pageSize {
		from = min((page-1)*pageSize, total)
	}
	to := from + min(pageSize, total-from)

	return Page[T]{
		Items:    items[from:to],
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  to < total,
		HasPrev:  page > 1,
	}
}

package calendar

import (
	"math"
	"testing"
)

func TestPaginate_Basic(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	page := Paginate(items, 1, 5)

	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items on page 1, got %d", len(page.Items))
	}
	if page.HasPrev {
		t.Fatalf("expected HasPrev=false on first page")
	}
	if !page.HasNext {
		t.Fatalf("expected HasNext=true on first page")
	}
	if page.Total != len(items) {
		t.Fatalf("expected Total=%d, got %d", len(items), page.Total)
	}
}

func TestPaginate_LastPage(t *testing.T) {
	page := Paginate([]int{1, 2, 3, 4, 5, 6}, 2, 4)

	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items on last page, got %d", len(page.Items))
	}
	if !page.HasPrev || page.HasNext {
		t.Fatalf("expected HasPrev=true, HasNext=false on last page, got %+v", page)
	}
}

func TestPaginate_Defaults(t *testing.T) {
	var items []int
	page := Paginate(items, 0, 0)

	if page.Page != 1 || page.PageSize != DefaultPageSize {
		t.Fatalf("expected defaults page=1 size=%d, got %+v", DefaultPageSize, page)
	}
	if len(page.Items) != 0 || page.HasNext || page.HasPrev {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestPaginate_HugeValuesDoNotOverflow(t *testing.T) {
	items := []int{1, 2, 3}

	page := Paginate(items, 2, math.MaxInt)
	if len(page.Items) != 0 || page.HasNext || page.Total != 3 {
		t.Fatalf("expected empty second page, got %+v", page)
	}

	page = Paginate(items, 1, math.MaxInt)
	if len(page.Items) != 3 || page.HasNext {
		t.Fatalf("expected all items on the first page, got %+v", page)
	}

	page = Paginate(items, math.MaxInt, 50)
	if len(page.Items) != 0 || page.HasNext || !page.HasPrev {
		t.Fatalf("expected empty page past the end, got %+v", page)
	}
}

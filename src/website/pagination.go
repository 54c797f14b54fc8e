package website

import (
	"git.hoosierptk.dev/forums/forums/src/templates"
)

func buildPagination(current, total int, buildUrl func(page int) string) templates.Pagination {
	p := templates.Pagination{
		Current:  current,
		Total:    total,
		FirstUrl: buildUrl(1),
		LastUrl:  buildUrl(total),
	}
	if current > 1 {
		p.PreviousUrl = buildUrl(current - 1)
	}
	if current < total {
		p.NextUrl = buildUrl(current + 1)
	}
	return p
}

package website

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPagination(t *testing.T) {
	build := func(page int) string { return "/p?page=" + strconv.Itoa(page) }

	first := buildPagination(1, 3, build)
	assert.Empty(t, first.PreviousUrl)
	assert.Equal(t, "/p?page=2", first.NextUrl)
	assert.Equal(t, "/p?page=3", first.LastUrl)

	last := buildPagination(3, 3, build)
	assert.Equal(t, "/p?page=2", last.PreviousUrl)
	assert.Empty(t, last.NextUrl)

	only := buildPagination(1, 1, build)
	assert.Empty(t, only.PreviousUrl)
	assert.Empty(t, only.NextUrl)
}

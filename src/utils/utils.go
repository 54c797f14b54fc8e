package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"git.hoosierptk.dev/forums/forums/src/oops"
)

// Returns the provided value, or a default value if the input was zero.
func OrDefault[T comparable](v T, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func IntMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func IntClamp(min, t, max int) int {
	return IntMax(min, IntMin(t, max))
}

// NumPages is never less than 1, so an empty listing still has a first page.
func NumPages(numThings, thingsPerPage int) int {
	if thingsPerPage <= 0 {
		return 1
	}
	return IntMax(int(math.Ceil(float64(numThings)/float64(thingsPerPage))), 1)
}

/*
ResolvePage turns a ?page= token into a page number that is always valid.
Anything that isn't an integer gives page 1. An integer outside 1..totalPages
gives the last page, including zero, negatives, and integers too big to fit in
an int. An empty listing still has one page.
*/
func ResolvePage(pageParam string, totalItems int, itemsPerPage int) (page int, totalPages int) {
	totalPages = NumPages(totalItems, itemsPerPage)

	pageParsed, err := strconv.Atoi(strings.TrimSpace(pageParam))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return totalPages, totalPages
		}
		return 1, totalPages
	}
	if pageParsed < 1 || pageParsed > totalPages {
		return totalPages, totalPages
	}
	return pageParsed, totalPages
}

// Must panics if err is non-nil. Typed nil pointers count as nil.
func Must[E error](err E) {
	if !isNilError(err) {
		panic(err)
	}
}

func Must1[T any, E error](v T, err E) T {
	Must(err)
	return v
}

func isNilError(err any) bool {
	if err == nil {
		return true
	}
	rv := reflect.ValueOf(err)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Truncate shortens s to at most n runes, adding an ellipsis if anything was cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

/*
Recover a panic and convert it to a returned error. Call it like so:

	func MyFunc() (err error) {
		defer utils.RecoverPanicAsError(&err)
	}

A panic takes precedence over an error that was already set.
*/
func RecoverPanicAsError(err *error) {
	if r := recover(); r != nil {
		var recoveredErr error
		if rerr, ok := r.(error); ok {
			recoveredErr = rerr
		} else {
			recoveredErr = fmt.Errorf("panic with value: %v", r)
		}
		*err = oops.New(recoveredErr, "panic recovered as error")
	}
}

var ErrSleepInterrupted = errors.New("sleep interrupted by context cancellation")

func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ErrSleepInterrupted
	case <-timer.C:
		return nil
	}
}

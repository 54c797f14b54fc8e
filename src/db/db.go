package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"git.hoosierptk.dev/forums/forums/src/oops"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/*
A general error to be used when no results are found. This is the error returned
by QueryOne, and can generally be used by other database helpers that fetch a single
result but find nothing.
*/
var NotFound = errors.New("not found")

// This interface should match both a direct pgx connection or a pgx transaction.
type ConnOrTx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Both raw database connections and transactions in pgx can begin/commit
	// transactions. On a transaction this makes a savepoint.
	Begin(ctx context.Context) (pgx.Tx, error)
}

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique constraint, and if
// so, which one.
func IsUniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

/*
Performs a SQL query and returns a slice of all the result rows. You must
explicitly provide the type argument; it is how the results get mapped.

Any statement that returns rows works, including INSERT ... RETURNING. For
statements without results, call Exec on the connection directly.
*/
func Query[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]*T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	return it.ToSlice()
}

// Identical to Query, but returns only the first row, or NotFound.
func QueryOne[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	result, hasRow := it.Next()
	if !hasRow {
		if err := it.Err(); err != nil {
			return nil, err
		}
		return nil, NotFound
	}
	return result, nil
}

// Identical to Query, but returns values instead of pointers. Handy for
// single columns.
func QueryScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var result []T
	for {
		val, hasRow := it.Next()
		if !hasRow {
			break
		}
		result = append(result, *val)
	}
	return result, it.Err()
}

// Identical to QueryScalar, but returns only the first value, or NotFound.
func QueryOneScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (T, error) {
	var zero T
	result, err := QueryOne[T](ctx, conn, query, args...)
	if err != nil {
		return zero, err
	}
	return *result, nil
}

/*
Identical to Query, but returns an Iterator instead of a slice. The iterator
must be closed after use; it is also closed when ctx is canceled.
*/
func QueryIterator[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*Iterator[T], error) {
	var destExample T
	compiled, err := compileQuery(query, reflect.TypeOf(destExample))
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, compiled.query, args...)
	if err != nil {
		return nil, oops.New(err, "query failed")
	}

	it := &Iterator[T]{
		compiled: compiled,
		rows:     rows,
		closed:   make(chan struct{}, 1),
	}

	// Rows hold a connection until closed, so make sure a canceled request
	// can't leak one.
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				it.Close()
			case <-it.closed:
			}
		}()
	}

	return it, nil
}

type compiledQuery struct {
	query      string
	destType   reflect.Type
	isScalar   bool
	fieldPaths []fieldPath
}

var reColumnsPlaceholder = regexp.MustCompile(`\$columns({(.*?)})?`)

func compileQuery(query string, destType reflect.Type) (compiledQuery, error) {
	columnsMatch := reColumnsPlaceholder.FindStringSubmatch(query)
	if columnsMatch == nil {
		return compiledQuery{
			query:    query,
			destType: destType,
			isScalar: typeIsQueryable(destType),
		}, nil
	}

	if destType.Kind() != reflect.Struct {
		return compiledQuery{}, oops.New(nil, "$columns can only be used when querying into a struct, not %v", destType)
	}

	columnNames, fieldPaths, err := getColumnNamesAndPaths(destType, nil, columnsMatch[2])
	if err != nil {
		return compiledQuery{}, err
	}

	return compiledQuery{
		query:      reColumnsPlaceholder.ReplaceAllLiteralString(query, strings.Join(columnNames, ", ")),
		destType:   destType,
		fieldPaths: fieldPaths,
	}, nil
}

// A path to a particular field in a query's destination type. Each element is
// a field index for use with reflect.Value.Field.
type fieldPath []int

func getColumnNamesAndPaths(destType reflect.Type, pathSoFar []int, prefix string) (names []string, paths []fieldPath, err error) {
	if destType.Kind() == reflect.Ptr {
		destType = destType.Elem()
	}
	if destType.Kind() != reflect.Struct {
		return nil, nil, oops.New(nil, "can only get column names from a struct, got %v (at prefix '%s')", destType, prefix)
	}

	for i := 0; i < destType.NumField(); i++ {
		field := destType.Field(i)
		columnName := field.Tag.Get("db")
		if columnName == "" || !field.IsExported() {
			continue
		}

		path := make(fieldPath, len(pathSoFar), len(pathSoFar)+1)
		copy(path, pathSoFar)
		path = append(path, i)

		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if typeIsQueryable(fieldType) {
			fullName := columnName
			if prefix != "" {
				fullName = prefix + "." + columnName
			}
			names = append(names, fullName)
			paths = append(paths, path)
		} else if fieldType.Kind() == reflect.Struct {
			subPrefix := columnName
			if prefix != "" && len(pathSoFar) > 0 {
				subPrefix = prefix + "_" + columnName
			}
			subNames, subPaths, err := getColumnNamesAndPaths(fieldType, path, subPrefix)
			if err != nil {
				return nil, nil, err
			}
			names = append(names, subNames...)
			paths = append(paths, subPaths...)
		} else {
			return nil, nil, oops.New(nil, "field '%s' in type %s has invalid type '%s'", field.Name, destType, field.Type)
		}
	}

	return names, paths, nil
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// Reports whether values of this type come straight out of a single column,
// as opposed to being structs we need to dig into for more `db` tags.
func typeIsQueryable(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType || t == uuidType {
		return true
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	return t.Kind() != reflect.Struct
}

type Iterator[T any] struct {
	compiled compiledQuery
	rows     pgx.Rows
	err      error
	closed   chan struct{}
}

func (it *Iterator[T]) Next() (*T, bool) {
	if it.err != nil || !it.rows.Next() {
		it.Close()
		return nil, false
	}

	result := reflect.New(it.compiled.destType)

	if it.compiled.isScalar {
		if err := it.rows.Scan(result.Interface()); err != nil {
			it.err = oops.New(err, "failed to scan %v", it.compiled.destType)
			it.Close()
			return nil, false
		}
		return result.Interface().(*T), true
	}

	// Scan every column into a fresh pointer so NULLs can be told apart from
	// zero values, then copy the non-NULL ones into place.
	targets := make([]any, len(it.compiled.fieldPaths))
	for i, path := range it.compiled.fieldPaths {
		fieldType := fieldTypeAtPath(it.compiled.destType, path)
		if fieldType.Kind() != reflect.Ptr {
			fieldType = reflect.PointerTo(fieldType)
		}
		targets[i] = reflect.New(fieldType).Interface()
	}
	if err := it.rows.Scan(targets...); err != nil {
		it.err = oops.New(err, "failed to scan row into %v", it.compiled.destType)
		it.Close()
		return nil, false
	}

	for i, path := range it.compiled.fieldPaths {
		scanned := reflect.ValueOf(targets[i]).Elem() // a pointer, maybe nil
		if scanned.IsNil() {
			continue
		}
		field := followPathThroughStructs(result, path)
		if field.Kind() == reflect.Ptr {
			field.Set(scanned)
		} else {
			field.Set(scanned.Elem())
		}
	}

	return result.Interface().(*T), true
}

func (it *Iterator[T]) Err() error {
	if it.err != nil {
		return it.err
	}
	if err := it.rows.Err(); err != nil {
		return oops.New(err, "error while iterating through db results")
	}
	return nil
}

func (it *Iterator[T]) Close() {
	it.rows.Close()
	select {
	case it.closed <- struct{}{}:
	default:
	}
}

// ToSlice pulls all the remaining values into a slice and closes the iterator.
func (it *Iterator[T]) ToSlice() ([]*T, error) {
	defer it.Close()
	var result []*T
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		result = append(result, row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func fieldTypeAtPath(t reflect.Type, path fieldPath) reflect.Type {
	for _, i := range path {
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		t = t.Field(i).Type
	}
	return t
}

// Walks to the field at path, allocating nil struct pointers along the way.
func followPathThroughStructs(structPtrVal reflect.Value, path fieldPath) reflect.Value {
	if len(path) < 1 {
		panic(fmt.Errorf("can't follow an empty path"))
	}

	val := structPtrVal
	for _, i := range path {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				val.Set(reflect.New(val.Type().Elem()))
			}
			val = val.Elem()
		}
		val = val.Field(i)
	}
	return val
}

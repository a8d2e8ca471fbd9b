// Package rows turns database/sql result sets into lazy, fallible sequences.
package rows

import (
	"context"
	"database/sql"
	"iter"

	"github.com/rs/zerolog"
)

// Querier is the read-only subset of *sql.DB the stores need.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is implemented by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

type ScanFunc[T any] func(Scanner) (T, error)

// Stream runs query when the sequence is first iterated and yields one
// scanned value per row. The first error ends the sequence. Rows are closed
// when iteration finishes or the consumer stops early.
func Stream[T any](ctx context.Context, q Querier, scan ScanFunc[T], query string, args ...any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		rs, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			yield(zero, err)
			return
		}
		defer func() {
			if err := rs.Close(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close query rows")
			}
		}()

		for rs.Next() {
			v, err := scan(rs)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}

		if err := rs.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// One runs a query expected to return exactly one row.
func One[T any](ctx context.Context, q Querier, scan ScanFunc[T], query string, args ...any) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// Map applies fn to every successful value of seq.
func Map[T, U any](seq iter.Seq2[T, error], fn func(T) (U, error)) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		var zero U
		for v, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			u, err := fn(v)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// Package repo holds the gorm-backed repositories.
package repo

import (
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// first returns (nil, nil) when nothing matches.
func first[T any](q *gorm.DB, query any, args ...any) (*T, error) {
	var v T
	err := q.Where(query, args...).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isDupKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// regexMatch builds a case-insensitive substring condition on column for
// the current dialect. The term is quoted so it is matched literally.
func regexMatch(db *gorm.DB, column, term string) (string, string) {
	pattern := regexp.QuoteMeta(term)
	if db.Dialector.Name() == "mysql" {
		return "LOWER(" + column + ") REGEXP LOWER(?)", pattern
	}
	return column + " ~* ?", pattern
}

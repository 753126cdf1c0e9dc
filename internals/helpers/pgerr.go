package helper

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kode SQLSTATE yang kita bedakan di controller. Duplicate key sudah
// diterjemahkan gorm (TranslateError) — sisanya dicek manual di sini.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}

package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes for the constraints the schema declares.
const (
	sqlStateNotNullViolation    = "23502"
	sqlStateForeignKeyViolation = "23503"
	sqlStateUniqueViolation     = "23505"
)

// constraintViolation matches the translated gorm error, the pgx SQLSTATE, and finally
// the driver message, which is all sqlite reports.
func constraintViolation(err error, translated error, sqlState string, fragments ...string) bool {
	if err == nil {
		return false
	}
	if translated != nil && errors.Is(err, translated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlState
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range fragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

func isUniqueConstraintViolation(err error) bool {
	return constraintViolation(err, gorm.ErrDuplicatedKey, sqlStateUniqueViolation, "duplicate key", "unique constraint")
}

func isForeignKeyConstraintViolation(err error) bool {
	return constraintViolation(err, gorm.ErrForeignKeyViolated, sqlStateForeignKeyViolation, "foreign key")
}

func isNotNullConstraintViolation(err error) bool {
	return constraintViolation(err, nil, sqlStateNotNullViolation, "null value", "not null")
}

package implementation

import (
	"errors"

	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// scoped applies specs in order.
func scoped(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// missing reports a not-found lookup, which repositories surface as a nil
// entity rather than an error.
func missing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translateError maps driver errors onto application error kinds.
func translateError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &apperror.Error{Kind: apperror.KindConflict, Message: conflictMessage, Err: err}
	}
	return err
}

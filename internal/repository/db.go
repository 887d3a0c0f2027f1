package repository

import (
	"errors"

	"globomart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation        = "23505"
	pgNotNullViolation       = "23502"
	pgCheckViolation         = "23514"
	pgInvalidTextRepresent   = "22P02"
	pgForeignKeyViolation    = "23503"
	pgNumericValueOutOfRange = "22003"
)

// translateError maps constraint violations to domain errors. Any other error is returned unchanged.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return model.ErrDuplicateKey.WithMessage(duplicateMessage(pgErr)).Wrap(err)
	case pgNotNullViolation, pgCheckViolation, pgInvalidTextRepresent, pgNumericValueOutOfRange:
		return model.ErrValidation.WithMessage("Please enter a valid " + validationField(pgErr)).Wrap(err)
	case pgForeignKeyViolation:
		return model.ErrValidation.WithMessage("Referenced resource does not exist").Wrap(err)
	default:
		return err
	}
}

func duplicateMessage(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "idx_users_email":
		return "Duplicate email entered"
	case "reviews_product_id_user_id_key":
		return "Duplicate review entered"
	default:
		return "Duplicate key entered"
	}
}

func validationField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "value"
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

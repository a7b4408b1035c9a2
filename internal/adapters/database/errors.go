package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
)

// constraint name -> stable error code
var conflictCodes = map[string]string{
	"claims_claim_form_number_key": entities.CodeDuplicateClaim,
	"claims_hospital_invoice_key":  entities.CodeDuplicateInvoice,
	"billing_sessions_no_overlap":  entities.CodeSessionOverlap,
	"claims_member_id_fkey":        entities.CodeMemberNotFound,
	"claims_hospital_id_fkey":      entities.CodeHospitalNotFound,
	"claims_scheme_id_fkey":        entities.CodeSchemeNotFound,
}

// translateError maps unique, exclusion and foreign key violations to CONFLICT
// errors carrying the domain code and wraps everything else as INTERNAL
func translateError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqExclusionViolation, pqForeignKeyViolation:
			conflict := apperrors.NewConflictError(message)
			conflict.Err = err
			if code, ok := conflictCodes[pqErr.Constraint]; ok {
				conflict.Code = code
			}
			return conflict
		}
	}
	return apperrors.NewInternalError(message, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// sqlDate renders a calendar day for comparison with DATE columns
func sqlDate(t time.Time) string {
	return entities.Day(t).Format("2006-01-02")
}

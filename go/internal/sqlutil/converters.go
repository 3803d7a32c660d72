package sqlutil

import "database/sql"

// ToSqlString maps a nil or empty string to NULL.
func ToSqlString(val *string) sql.NullString {
	if val == nil || *val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *val, Valid: true}
}

// FromSqlStringPtr maps NULL to nil.
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	s := val.String
	return &s
}

package pgrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
)

// repos hold the app-wide executor and accept a per-call override so services
// can run statements on an open transaction.
func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}

// trapNoRowsErr maps psql "no rows" err to the package's notFound sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUUID reports whether s can be compared against a uuid column without a
// cast error.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// validUUIDs drops values that would fail the uuid cast; a malformed id can
// never match a row, so dropping it preserves the query's meaning.
func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// inQuery expands a `?`-style IN query with args and rebinds it to $n placeholders.
func inQuery(query string, args ...interface{}) (string, []interface{}, error) {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding IN clause")
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), expanded, nil
}

package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// mysqlDuplicateEntry is the MySQL error number for unique constraint violations.
const mysqlDuplicateEntry = 1062

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ConstraintName extracts the name of the violated unique constraint from a
// driver error. It returns an empty string when the error is not a unique
// constraint violation, so callers can use it both to classify and to
// identify the conflict in a single call.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pgUniqueViolation {
			return pqErr.Constraint
		}
		return ""
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlDuplicateEntry {
			return mysqlKeyName(myErr.Message)
		}
		return ""
	}

	return ""
}

// mysqlKeyName parses the key name out of a duplicate entry message, which
// looks like: Duplicate entry 'x' for key 'table.key_name'. MySQL versions
// before 8.0 omit the table prefix.
func mysqlKeyName(message string) string {
	marker := "for key '"
	idx := strings.LastIndex(message, marker)
	if idx == -1 {
		return ""
	}

	key := message[idx+len(marker):]
	end := strings.Index(key, "'")
	if end == -1 {
		return ""
	}
	key = key[:end]

	if dot := strings.LastIndex(key, "."); dot != -1 {
		key = key[dot+1:]
	}
	return key
}

// ConflictPolicy declares how a write resolves unique constraint violations.
// Constraints listed in Swallow mark the write as an idempotent no-op, and
// constraints mapped in Surface translate into the associated error. Any
// other error passes through unchanged.
type ConflictPolicy struct {
	Swallow []string
	Surface map[string]error
}

// Resolve classifies err against the policy. It returns (true, nil) when the
// violated constraint is swallowed, (false, mapped) when it is surfaced, and
// (false, err) otherwise.
func (p ConflictPolicy) Resolve(err error) (noop bool, out error) {
	if err == nil {
		return false, nil
	}

	constraint := ConstraintName(err)
	if constraint == "" {
		return false, err
	}

	for _, name := range p.Swallow {
		if name == constraint {
			return true, nil
		}
	}

	if mapped, ok := p.Surface[constraint]; ok {
		return false, mapped
	}

	return false, err
}

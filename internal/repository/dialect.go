package repository

import (
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"
)

// Dialect selects the few statements that differ between the production
// MySQL store and the SQLite database used in tests and local tooling.
type Dialect int

const (
    DialectMySQL Dialect = iota
    DialectSQLite
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// insertIgnore returns the statement prefix that inserts a row unless it
// would violate a unique key.
func (d Dialect) insertIgnore() string {
    if d == DialectSQLite {
        return "INSERT OR IGNORE INTO"
    }
    return "INSERT IGNORE INTO"
}

// isDuplicateKey reports whether err is a unique constraint violation.
func (d Dialect) isDuplicateKey(err error) bool {
    if err == nil {
        return false
    }
    if d == DialectSQLite {
        return strings.Contains(err.Error(), "UNIQUE constraint failed")
    }
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

package workflow

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Lifecycle transactions are retried on transient conflicts (deadlock,
// lock-wait timeout) before the failure is surfaced. Every retry re-runs the
// whole closure, reads included.
const transactionRetries = 2

func isTransientTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1205 = lock wait timeout, 1213 = deadlock victim
		return mysqlErr.Number == 1205 || mysqlErr.Number == 1213
	}
	return false
}

func runInTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= transactionRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isTransientTxError(err) {
			return err
		}
	}
	return err
}

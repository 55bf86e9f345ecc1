package gormpersistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"matchroom/internal/repository"
)

// translateError maps driver-level failures onto the repository error
// taxonomy so services never see gorm or MySQL types.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	if isDuplicateEntry(err) {
		return repository.ErrDuplicateEntry
	}
	if isTransient(err) {
		return repository.ErrUnavailable
	}
	return err
}

// isDuplicateEntry checks for a MySQL unique constraint violation (1062).
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// isTransient checks for failures worth a bounded retry: timeouts, dropped
// connections, lock waits and deadlocks.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213: // lock wait timeout, deadlock
			return true
		}
	}
	return false
}

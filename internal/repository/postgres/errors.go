package postgres

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation (the booking race closure surfaces as one of these).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsTransient classifies infrastructure errors worth retrying: connection
// failures, admin shutdowns, resource exhaustion and network timeouts.
// Everything else, constraint violations included, is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection exceptions
			return true
		case pqErr.Code == "57P01": // admin_shutdown
			return true
		case pqErr.Code == "53300": // too_many_connections
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

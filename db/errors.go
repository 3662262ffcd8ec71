package db

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/luckydraw/draw"
)

// MySQL server errors that mean the database cannot be used at all:
// too many connections, access denied to database, access denied for user,
// unknown database.
var mysqlUnavailable = map[uint16]bool{
	1040: true,
	1044: true,
	1045: true,
	1049: true,
}

// PostgreSQL SQLSTATE codes outside class 08 with the same meaning.
var pgUnavailable = map[string]bool{
	"28000": true, // invalid_authorization_specification
	"28P01": true, // invalid_password
	"3D000": true, // invalid_catalog_name
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

// Classify marks connection-class failures with draw.Unavailable and returns
// every other error unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return draw.Unavailable(err)
	}
	return err
}

// IsUnavailable reports whether err means the database could not be reached
// or refused the connection. A context deadline is not enough on its own: a
// statement waiting on a row lock times out the same way. Setup marks a failed
// ping explicitly instead.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, draw.ErrStorageUnavailable),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT):
		return true
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return mysqlUnavailable[me.Number]
	}

	var pe pgdriver.Error
	if errors.As(err, &pe) {
		code := pe.Field('C')
		return strings.HasPrefix(code, "08") || pgUnavailable[code]
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

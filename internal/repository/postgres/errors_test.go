package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("failed to create: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))

	// driver-level connection loss
	assert.True(t, IsTransient(driver.ErrBadConn))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", driver.ErrBadConn)))

	// postgres error classes
	assert.True(t, IsTransient(&pq.Error{Code: "08006"}))
	assert.True(t, IsTransient(&pq.Error{Code: "57P01"}))
	assert.True(t, IsTransient(&pq.Error{Code: "53300"}))
	assert.False(t, IsTransient(&pq.Error{Code: "23505"}))
	assert.False(t, IsTransient(&pq.Error{Code: "42601"}))

	// network-ish strings
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTransient(errors.New("read: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("write: broken pipe")))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))

	assert.False(t, IsTransient(errors.New("no rows in result set")))
}

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	database := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), database))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, Ping(context.Background(), database))

	assert.NoError(t, mock.ExpectationsWereMet())
}

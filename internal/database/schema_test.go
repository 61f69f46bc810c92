package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestEnsureSchema(t *testing.T) {
	t.Run("creates tables and operator", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		for range schemaStatements {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs("pigpay").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = EnsureSchema(context.Background(), db, "pigpay")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err = EnsureSchema(context.Background(), db, "pigpay")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "pigpay", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pigpay sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db/pigpay"
	assert.Equal(t, "postgres://u:p@db/pigpay", cfg.DSN())
}

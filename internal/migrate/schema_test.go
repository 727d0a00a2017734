package migrate

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/config"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, s := range []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE SCHEMA IF NOT EXISTS "public"`,
		`CREATE TABLE IF NOT EXISTS "public"."basic_block"`,
		`CREATE INDEX IF NOT EXISTS "basic_block_geom_gist"`,
		`CREATE INDEX IF NOT EXISTS "basic_block_parent_uid_idx"`,
		`ALTER TABLE "public"."segment" ADD COLUMN IF NOT EXISTS "bb_uid_l" TEXT`,
		`ALTER TABLE "public"."segment" ADD COLUMN IF NOT EXISTS "bb_uid_r" TEXT`,
	} {
		mock.ExpectExec(regexp.QuoteMeta(s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(db, config.Default()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION`)).WillReturnError(errors.New("extension \"postgis\" is not available"))
	err = EnsureSchema(db, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema step 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

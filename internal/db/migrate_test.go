package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminConnString(t *testing.T) {
	admin, name, err := adminConnString("postgres://ta:secret@db:5432/candles?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "candles", name)
	assert.Equal(t, "postgres://ta:secret@db:5432/postgres?sslmode=disable", admin)

	_, _, err = adminConnString("postgres://ta@db:5432/")
	assert.ErrorContains(t, err, "database name not found")

	_, _, err = adminConnString("host=db dbname=candles")
	assert.Error(t, err)
}

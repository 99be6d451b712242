package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestDateConversion(t *testing.T) {
	t.Parallel()

	assert.False(t, toDate(time.Time{}).Valid)
	assert.True(t, fromDate(pgtype.Date{}).IsZero())

	local := time.Date(2021, 3, 4, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	d := toDate(local)
	assert.True(t, d.Valid)
	assert.Equal(t, time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), fromDate(d))
}

package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
)

const countSQL = `(?i)SELECT count\(\*\) FROM .signs.`

// twoBatchTiers generates 650 rows: S01-0001..S01-0600 then S00-0001..S00-0050.
var twoBatchTiers = Tiers{
	{Level: 1, Type: "Top", RewardCode: "R01", Count: 600},
	{Level: 0, Type: "Empty", RewardCode: "EMPTY", Count: 50},
}

func mockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, mysqldialect.New())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqldb.Close()
	})
	return db, mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// expectBatches matches each insert by its first and last id; nothing
// follows the last tuple of a batch.
func expectBatches(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`^INSERT INTO .signs. .*'S01-0001'.*'S01-0500'[^(]*$`).
		WillReturnResult(sqlmock.NewResult(0, 500))
	mock.ExpectExec(`^INSERT INTO .signs. .*'S01-0501'.*'S00-0050'[^(]*$`).
		WillReturnResult(sqlmock.NewResult(0, 150))
}

func TestSeed_SkipsWhenCountMatches(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(650))

	res, err := Seed(context.Background(), db, twoBatchTiers)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Existing: 650}, res)
}

func TestSeed_EmptyTableInsertsInBatches(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	expectBatches(mock)
	mock.ExpectCommit()

	res, err := Seed(context.Background(), db, twoBatchTiers)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Existing: 0, Inserted: 650}, res)
}

func TestSeed_ClearsMismatchedTableInSameTx(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(7))
	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE .*FROM .signs. .*WHERE \(1 = 1\)`).WillReturnResult(sqlmock.NewResult(0, 7))
	expectBatches(mock)
	mock.ExpectCommit()

	res, err := Seed(context.Background(), db, twoBatchTiers)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Existing: 7, Cleared: true, Inserted: 650}, res)
}

func TestSeed_FailedInsertRollsBackClear(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(7))
	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE .*FROM .signs.`).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(`^INSERT INTO .signs.`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	res, err := Seed(context.Background(), db, twoBatchTiers)
	require.Error(t, err)
	assert.ErrorContains(t, err, "insert signs 0-500")
	assert.False(t, res.Cleared)
	assert.Zero(t, res.Inserted)
}

func TestSeed_InvalidTiersTouchNothing(t *testing.T) {
	db, _ := mockDB(t)

	_, err := Seed(context.Background(), db, Tiers{{Level: 1, Type: "x"}})
	assert.ErrorContains(t, err, "reward_code is required")
}

func TestReset(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec(`^UPDATE .signs. .*SET is_drawn = .+ WHERE \(is_drawn = `).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := Reset(context.Background(), db)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}

func TestCollect(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(650))
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(640))
	mock.ExpectQuery(countSQL).WillReturnRows(countRows(10))
	mock.ExpectQuery(`COUNT\(DISTINCT id\)`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(650)))
	mock.ExpectQuery(`GROUP BY level, type, reward_code ORDER BY level ASC`).WillReturnRows(
		sqlmock.NewRows([]string{"level", "type", "reward_code", "total", "drawn"}).
			AddRow(int64(0), "Empty", "EMPTY", int64(50), int64(4)).
			AddRow(int64(1), "Top", "R01", int64(600), int64(6)),
	)

	st, err := Collect(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Total:       650,
		Undrawn:     640,
		Drawn:       10,
		DistinctIDs: 650,
		Levels: []LevelCount{
			{Level: 0, Type: "Empty", RewardCode: "EMPTY", Total: 50, Drawn: 4},
			{Level: 1, Type: "Top", RewardCode: "R01", Total: 600, Drawn: 6},
		},
	}, st)
	assert.Empty(t, Verify(st, twoBatchTiers, false))
	assert.NotEmpty(t, Verify(st, twoBatchTiers, true))
}

func TestCollect_PropagatesErrors(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(countSQL).WillReturnError(errors.New("connection reset"))

	_, err := Collect(context.Background(), db)
	assert.ErrorContains(t, err, "count signs")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/models"
	"github.com/padraicbc/luckydraw/pool"
)

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"init", "verify", "reset", "draw"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("tiers"))

	verify, _, err := cmd.Find([]string{"verify"})
	require.NoError(t, err)
	assert.NotNil(t, verify.Flags().Lookup("fresh"))

	drawCmd, _, err := cmd.Find([]string{"draw"})
	require.NoError(t, err)
	n := drawCmd.Flags().ShorthandLookup("n")
	require.NotNil(t, n)
	assert.Equal(t, "1", n.DefValue)
}

func memPool(count int) *draw.MemoryStore {
	return draw.NewMemoryStore(pool.Generate(pool.Tiers{
		{Level: 1, Type: "Top", RewardCode: "R01", Count: 1},
		{Level: 0, Type: "Empty", RewardCode: "EMPTY", Count: count - 1},
	}))
}

func TestRunDraws_Bounded(t *testing.T) {
	store := memPool(10)
	var out bytes.Buffer

	sum, err := runDraws(context.Background(), draw.New(store), 4, &out)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.OK)
	assert.False(t, sum.OutOfStock)
	assert.Empty(t, sum.Duplicates)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	var res draw.Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &res))
	assert.Equal(t, draw.StatusOK, res.Status)
	require.NotNil(t, res.Sign)
	assert.NotEmpty(t, res.Sign.ID)
}

func TestRunDraws_UntilOutOfStock(t *testing.T) {
	store := memPool(25)
	var out bytes.Buffer

	sum, err := runDraws(context.Background(), draw.New(store), 0, &out)
	require.NoError(t, err)
	assert.Equal(t, 25, sum.OK)
	assert.True(t, sum.OutOfStock)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 26)
	assert.JSONEq(t, `{"status":"OUT_OF_STOCK"}`, lines[25])

	undrawn, drawn := store.Counts()
	assert.Equal(t, 0, undrawn)
	assert.Equal(t, 25, drawn)
}

type repeatDrawer struct{ sign models.Sign }

func (r repeatDrawer) PerformDraw(context.Context) (draw.Result, error) {
	s := r.sign
	return draw.Result{Status: draw.StatusOK, Sign: &s}, nil
}

func TestRunDraws_FlagsDuplicates(t *testing.T) {
	sum, err := runDraws(context.Background(), repeatDrawer{models.Sign{ID: "S01-0001"}}, 3, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"S01-0001", "S01-0001"}, sum.Duplicates)
}

func TestRunDraws_StopsOnError(t *testing.T) {
	store := memPool(5)
	store.InjectFault(draw.OpBegin, errors.New("boom"))

	sum, err := runDraws(context.Background(), draw.New(store), 0, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, draw.ErrDrawFailed)
	assert.Contains(t, err.Error(), "draw 1")
	assert.Zero(t, sum.OK)
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, report(&out, pool.Stats{Total: 3, Undrawn: 3}, nil))
	assert.Contains(t, out.String(), `"total": 3`)
	assert.Contains(t, out.String(), "pool OK")

	out.Reset()
	err := report(&out, pool.Stats{}, []string{"total rows 0, expected 10000"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "FAIL: total rows 0, expected 10000")
}

package tradelog

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

func TestAppend_WritesOneJSONLinePerEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(types.TradeLogEntry{PositionID: "p1", Venue: types.VenuePolymarketlike, Qty: 50}))
	require.NoError(t, l.Append(types.TradeLogEntry{PositionID: "p1", Venue: types.VenueKalshilike, Qty: 50}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.Len(t, lines, 2)

	var entry types.TradeLogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "p1", entry.PositionID)
}

func TestAppendResult_SplitsLegsAndStampsRealizedProfitOnSecondLeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	result := types.ExecutionResult{
		OpportunityID: "opp-1",
		FirstLeg:      &types.OrderTicket{Venue: types.VenuePolymarketlike, FilledQty: 50, LastUpdatedAt: time.Now()},
		SecondLeg:     &types.OrderTicket{Venue: types.VenueKalshilike, FilledQty: 50, LastUpdatedAt: time.Now()},
		RealizedProfit: 8.5,
	}

	require.NoError(t, l.AppendResult("pos-1", result))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var entries []types.TradeLogEntry
	for scanner.Scan() {
		var e types.TradeLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}

	require.Len(t, entries, 2)
	require.Zero(t, entries[0].RealizedProfit)
	require.Equal(t, 8.5, entries[1].RealizedProfit)
}

func TestAppendResult_SkipsNilLegs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	result := types.ExecutionResult{
		OpportunityID: "opp-1",
		FirstLeg:      &types.OrderTicket{Venue: types.VenuePolymarketlike, FilledQty: 0.1},
		SecondLeg:     nil,
	}

	require.NoError(t, l.AppendResult("pos-1", result))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		count++
	}
	require.Equal(t, 1, count)
}

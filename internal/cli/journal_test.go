package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forex-journal/internal/analytics"
	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/journal"
	"forex-journal/internal/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// run executes the CLI against an isolated config directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), append([]string{"--config", dir}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func runJSON(t *testing.T, dir string, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, dir, append(args, "--json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func addTrade(t *testing.T, dir, date, result, rr string) models.TradeRecord {
	t.Helper()
	var rec models.TradeRecord
	runJSON(t, dir, &rec, "add",
		"--date", date, "--pair", "eur/usd", "--type", "LONG",
		"--setup", "pt-pof", "--result", result, "--rr", rr)
	return rec
}

func TestVersion(t *testing.T) {
	var v map[string]string
	runJSON(t, t.TempDir(), &v, "version")
	assert.Equal(t, Version, v["version"])
}

func TestConfigPathAndValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	out, err = run(t, dir, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestAddListStatsDelete(t *testing.T) {
	dir := t.TempDir()

	win := addTrade(t, dir, "2024-01-10", "win", "2")
	assert.Equal(t, models.PairEURUSD, win.Pair)
	assert.Equal(t, models.SideLong, win.Type)
	assert.Equal(t, models.SetupPTPOF, win.Setup)
	addTrade(t, dir, "2024-02-05", "loss", "abc")

	var trades []models.TradeRecord
	runJSON(t, dir, &trades, "list")
	require.Len(t, trades, 2)
	assert.Equal(t, win.ID, trades[0].ID)

	var snap analytics.Snapshot
	runJSON(t, dir, &snap, "stats")
	assert.Equal(t, 2, snap.TotalTrades)
	assert.Equal(t, 50.0, snap.WinRate)
	assert.Equal(t, 1.0, snap.AvgRiskReward)
	require.Len(t, snap.Monthly, 2)
	assert.Equal(t, "Jan 2024", snap.Monthly[0].Label)

	out, err := run(t, dir, "stats", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "Win Rate:      50.0%")
	assert.Contains(t, out, "Setup Details")
	assert.Contains(t, out, "EUR/USD 1/2")

	out, err = run(t, dir, "delete", ShortID(win.ID))
	require.NoError(t, err)
	assert.Contains(t, out, win.ID)

	runJSON(t, dir, &trades, "list")
	require.Len(t, trades, 1)
	assert.NotEqual(t, win.ID, trades[0].ID)

	_, err = run(t, dir, "delete", win.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrTradeNotFound))
}

func TestDeleteRejectsBlankID(t *testing.T) {
	dir := t.TempDir()
	only := addTrade(t, dir, "2024-01-10", "win", "2")

	for _, id := range []string{"", "   "} {
		_, err := run(t, dir, "delete", id)
		require.Error(t, err, "id %q", id)
		assert.True(t, apperrors.Is(err, apperrors.ErrInputValidation), "id %q: %v", id, err)

		_, err = run(t, dir, "show", id)
		assert.True(t, apperrors.Is(err, apperrors.ErrInputValidation), "id %q: %v", id, err)
	}

	var trades []models.TradeRecord
	runJSON(t, dir, &trades, "list")
	require.Len(t, trades, 1)
	assert.Equal(t, only.ID, trades[0].ID)
}

func TestAddMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "add", "--date", "2024-01-10", "--notes", "forgot everything")
	require.Error(t, err)
	assert.True(t, journal.MissingRequired(err))
	assert.Contains(t, out, journal.RequiredFieldsMessage)
	assert.Contains(t, out, "- pair: is required")
	assert.Contains(t, out, "- result: is required")

	var trades []models.TradeRecord
	runJSON(t, dir, &trades, "list")
	assert.Empty(t, trades)
}

func TestAddRejectsUnknownPair(t *testing.T) {
	out, err := run(t, t.TempDir(), "add",
		"--date", "2024-01-10", "--pair", "BTC/USD", "--type", "long", "--result", "win")
	require.Error(t, err)
	assert.False(t, journal.MissingRequired(err))
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "- pair: must be one of")
}

func TestListRecent(t *testing.T) {
	dir := t.TempDir()
	var added []models.TradeRecord
	for i := 0; i < 6; i++ {
		added = append(added, addTrade(t, dir, "2024-01-10", "win", "1"))
	}

	var trades []models.TradeRecord
	runJSON(t, dir, &trades, "list", "--recent")
	require.Len(t, trades, 5)
	assert.Equal(t, added[5].ID, trades[0].ID)
	assert.Equal(t, added[1].ID, trades[4].ID)

	runJSON(t, dir, &trades, "list", "--recent=2")
	require.Len(t, trades, 2)
	assert.Equal(t, added[4].ID, trades[1].ID)

	out, err := run(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "6 trade(s)")
	assert.Contains(t, out, ShortID(added[0].ID))
}

func TestAddWithScreenshot(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "chart.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.WriteFile(img, buf.Bytes(), 0o644))

	var rec models.TradeRecord
	runJSON(t, dir, &rec, "add",
		"--date", "2024-01-10", "--pair", "GBP/USD", "--type", "short", "--result", "loss",
		"--screenshot", "m15="+img)
	require.Contains(t, rec.Screenshots, models.TimeframeM15)
	assert.True(t, strings.HasPrefix(rec.Screenshots[models.TimeframeM15], "data:image/png;base64,"))

	out, err := run(t, dir, "show", rec.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Screenshots")
	assert.Contains(t, out, "m15")

	_, err = run(t, dir, "add",
		"--date", "2024-01-10", "--pair", "GBP/USD", "--type", "short", "--result", "loss",
		"--screenshot", "weekly="+img)
	assert.Error(t, err)
}

func TestExportImportCSV(t *testing.T) {
	src := t.TempDir()
	addTrade(t, src, "2024-01-10", "win", "2")
	addTrade(t, src, "2024-01-11", "loss", "1")

	file := filepath.Join(t.TempDir(), "trades.csv")
	out, err := run(t, src, "export", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 trade(s)")

	stdout, err := run(t, src, "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "id,date,pair"), stdout)

	dst := t.TempDir()
	var res journal.ImportResult
	runJSON(t, dst, &res, "import", file)
	assert.Equal(t, 2, res.Imported)

	var srcTrades, dstTrades []models.TradeRecord
	runJSON(t, src, &srcTrades, "list")
	runJSON(t, dst, &dstTrades, "list")
	assert.Equal(t, srcTrades, dstTrades)

	runJSON(t, dst, &res, "import", file)
	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	runJSON(t, dst, &res, "import", file, "--replace")
	assert.Equal(t, 2, res.Imported)
	assert.True(t, res.Replaced)
}

func TestExportImportXLSX(t *testing.T) {
	src := t.TempDir()
	addTrade(t, src, "2024-01-10", "win", "2")

	_, err := run(t, src, "export", "--format", "xlsx")
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "journal.xlsx")
	_, err = run(t, src, "export", "--out", file)
	require.NoError(t, err)

	dst := t.TempDir()
	var res journal.ImportResult
	runJSON(t, dst, &res, "import", file)
	assert.Equal(t, 1, res.Imported)
}

func TestEphemeralDoesNotPersist(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "--ephemeral", "add",
		"--date", "2024-01-10", "--pair", "EUR/USD", "--type", "long", "--result", "win")
	require.NoError(t, err)

	var trades []models.TradeRecord
	runJSON(t, dir, &trades, "--ephemeral", "list")
	assert.Empty(t, trades)
	assert.NoFileExists(t, filepath.Join(dir, "journal.db"))
}

package pipeline

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/chart"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/processor"
	"AirQualityEDA/src/storage"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{"City", "Country", "Date", "PM2.5", "PM10", "NO2", "SO2", "CO", "O3", "Temperature", "Humidity", "Wind Speed"}

// datasetRecords 三个城市各十天的数据，第 0 行 PM2.5 缺失
func datasetRecords() [][]string {
	cities := [][2]string{{"Paris", "France"}, {"London", "UK"}, {"Delhi", "India"}}
	records := [][]string{header}
	for i := 0; i < 30; i++ {
		c := cities[i%3]
		pm := fmt.Sprintf("%d", 10+i)
		if i == 0 {
			pm = ""
		}
		records = append(records, []string{
			c[0], c[1], fmt.Sprintf("2023-01-%02d", i/3+1),
			pm,
			fmt.Sprintf("%d", 20+2*i),
			fmt.Sprintf("%d", 30+(i*7)%11),
			fmt.Sprintf("%d", 5+(i*3)%5),
			fmt.Sprintf("%.2f", 0.5+float64(i)/100),
			fmt.Sprintf("%d", 40+i%6),
			fmt.Sprintf("%d", 10+i%15),
			fmt.Sprintf("%d", 60+(i*13)%30),
			fmt.Sprintf("%.1f", 2+float64(i%4)),
		})
	}
	return records
}

func writeCSV(t *testing.T, records [][]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(records))
	path := filepath.Join(t.TempDir(), "air.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func setup(t *testing.T, input string) (*config.Config, *storage.Logger) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.Chart.Width, cfg.Chart.Height = 6, 4

	logger, err := storage.NewLogger(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	logger.SetStderr(false)
	t.Cleanup(func() { logger.Close() })
	return cfg, logger
}

func TestRun(t *testing.T) {
	cfg, logger := setup(t, writeCSV(t, datasetRecords()))
	var stdout bytes.Buffer

	res, err := Run(cfg, config.DefaultDataConfig(), logger, &stdout)
	require.NoError(t, err)

	assert.Equal(t, 30, res.Cleaned.Nrow())
	assert.Equal(t, 0, res.CleanReport.Missing(processor.ColPM25))
	require.Len(t, res.CleanReport.Imputed, 1)
	assert.Equal(t, 1, res.CleanReport.Imputed[0].Filled)

	assert.Equal(t, []string{"Delhi", "London", "Paris"}, res.Aggregates.Cities())
	assert.Equal(t, 30, res.Aggregates.Total())
	assert.Len(t, res.Stats, 9)
	assert.Len(t, res.Correlation.Columns, 9)

	assert.Len(t, res.Artifacts, 9)
	for _, a := range res.Artifacts {
		_, err := os.Stat(a.Path)
		assert.NoError(t, err, a.Name)
	}
	_, err = os.Stat(res.ReportPath)
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)

	out := stdout.String()
	assert.NotContains(t, out, "== Warnings")
	assert.Contains(t, out, "Preview (first 5 rows)")
	assert.Contains(t, out, "Mean pollutant levels by city")
	assert.Contains(t, out, chart.FileBoxPlot)
}

func TestRun_XLSXInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "air.xlsx")
	f := excelize.NewFile()
	for i, rec := range datasetRecords() {
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg, logger := setup(t, path)
	cfg.Chart.HTML = false

	res, err := Run(cfg, config.DefaultDataConfig(), logger, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Cleaned.Nrow())
	assert.Len(t, res.Artifacts, 8)
}

func TestRun_CityWhitespaceVariants(t *testing.T) {
	records := datasetRecords()
	records[4][0] = " Paris"
	records[7][0] = "Paris "

	tests := []struct {
		name      string
		normalize bool
		cities    []string
		paris     int
	}{
		{"exact", false, []string{" Paris", "Delhi", "London", "Paris", "Paris "}, 8},
		{"normalized", true, []string{"Delhi", "London", "Paris"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, logger := setup(t, writeCSV(t, records))
			cfg.NormalizeCity = tt.normalize

			res, err := Run(cfg, config.DefaultDataConfig(), logger, &bytes.Buffer{})
			require.NoError(t, err)

			// 读入时不去除城市名空白
			assert.Equal(t, " Paris", res.Observations[3].City)
			assert.Equal(t, "Paris ", res.Observations[6].City)

			assert.Equal(t, tt.cities, res.Aggregates.Cities())
			assert.Equal(t, tt.paris, res.Aggregates.Count("Paris"))
			assert.Equal(t, 30, res.Aggregates.Total())
		})
	}
}

func TestRun_CollectsWarnings(t *testing.T) {
	records := datasetRecords()
	dup := append([]string(nil), records[2]...)
	dup[3] = dup[3] + ".0"
	records = append(records, dup)
	cfg, logger := setup(t, writeCSV(t, records))
	var stdout bytes.Buffer

	res, err := Run(cfg, config.DefaultDataConfig(), logger, &stdout)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CleanReport.Duplicates)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "[WARNING] stage=clean")
	assert.Contains(t, res.Warnings[0], "1 行重复数据")
	assert.Contains(t, stdout.String(), "== Warnings (1) ==")

	// 运行结束后不再收集
	logger.Warning("after run")
	assert.Len(t, res.Warnings, 1)
}

func TestRun_ReorderedNumericColumns(t *testing.T) {
	records := datasetRecords()
	records[0] = append([]string(nil), header...)
	for _, rec := range records {
		rec[3], rec[4] = rec[4], rec[3]
	}
	dcfg := config.DefaultDataConfig()
	dcfg.Columns[3], dcfg.Columns[4] = dcfg.Columns[4], dcfg.Columns[3]
	require.NoError(t, dcfg.Validate())

	cfg, logger := setup(t, writeCSV(t, records))
	cfg.Chart.HTML = false

	res, err := Run(cfg, dcfg, logger, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, dcfg.NumericColumns(), res.Correlation.Columns)
	assert.Equal(t, processor.ColPM10, res.Correlation.Columns[0])
	assert.InDelta(t, 20.0, res.Observations[0].PM10, 1e-9)
}

func TestRun_Errors(t *testing.T) {
	renamed := datasetRecords()
	renamed[0] = append([]string(nil), header...)
	renamed[0][3] = "PM25"

	badNumber := datasetRecords()
	badNumber[5][6] = "lots"

	tests := []struct {
		name    string
		input   func(t *testing.T) string
		errType apperrors.ErrorType
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.csv") }, apperrors.ErrTypeIO},
		{"renamed column", func(t *testing.T) string { return writeCSV(t, renamed) }, apperrors.ErrTypeShape},
		{"non numeric", func(t *testing.T) string { return writeCSV(t, badNumber) }, apperrors.ErrTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, logger := setup(t, tt.input(t))
			_, err := Run(cfg, config.DefaultDataConfig(), logger, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, tt.errType, apperrors.TypeOf(err))
		})
	}
}

package processor

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/datasource/file"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "City,Country,Date,PM2.5,PM10,NO2,SO2,CO,O3,Temperature,Humidity,Wind Speed\n"

const sampleCSV = header +
	"Paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2\n" +
	"Paris,France,2023/01/02,,22,31,5,0.6,41,13,72,3\n" +
	"Paris,France,2023-01-03,30,24,32,6,0.7,42,14,74,2.8\n" +
	"London,UK,2023-01-01,20,26,NA,7,0.8,35,9,80,5.1\n"

func loadFrame(t *testing.T, content string) dataframe.DataFrame {
	t.Helper()
	df, err := file.ReadCSV(strings.NewReader(content))
	require.NoError(t, err)
	return df
}

func cleanFrame(t *testing.T, content string) (dataframe.DataFrame, CleanReport) {
	t.Helper()
	out, report, err := NewCleaner(config.DefaultDataConfig()).Clean(loadFrame(t, content))
	require.NoError(t, err)
	return out, report
}

func TestClean_ImputesColumnMean(t *testing.T) {
	out, report := cleanFrame(t, sampleCSV)

	assert.Equal(t, 4, out.Nrow())
	pm := out.Col(ColPM25).Float()
	assert.InDelta(t, 20.0, pm[1], 1e-9)

	no2 := out.Col(ColNO2).Float()
	assert.InDelta(t, 31.0, no2[3], 1e-9)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 0, report.Duplicates)
	require.Len(t, report.Imputed, 2)
	assert.Equal(t, Imputation{Column: ColPM25, Mean: 20, Filled: 1}, report.Imputed[0])
	assert.Equal(t, ColNO2, report.Imputed[1].Column)

	for _, c := range report.MissingAfter {
		if c.Column == "Country" {
			continue
		}
		assert.Zero(t, c.Count, c.Column)
	}
	assert.Equal(t, 0, report.Missing(ColPM25))
}

func TestClean_NormalizesDates(t *testing.T) {
	out, _ := cleanFrame(t, sampleCSV)

	dates := out.Col("Date").Records()
	assert.Equal(t, []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-01"}, dates)
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	df := loadFrame(t, sampleCSV)
	before := df.Records()

	_, _, err := NewCleaner(config.DefaultDataConfig()).Clean(df)
	require.NoError(t, err)

	assert.Equal(t, before, df.Records())
	assert.True(t, df.Col(ColPM25).Elem(1).IsNA())
}

func TestClean_Idempotent(t *testing.T) {
	once, _ := cleanFrame(t, sampleCSV)

	twice, report, err := NewCleaner(config.DefaultDataConfig()).Clean(once)
	require.NoError(t, err)

	assert.Equal(t, once.Records(), twice.Records())
	assert.Empty(t, report.Imputed)
}

func TestClean_MissingAndDuplicateCounts(t *testing.T) {
	content := sampleCSV + "Paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2\n"
	df := loadFrame(t, content)

	assert.Equal(t, 1, DuplicateCount(df, config.DefaultDataConfig()))

	counts := MissingCounts(df)
	require.Len(t, counts, 12)
	got := map[string]int{}
	for _, c := range counts {
		got[c.Column] = c.Count
	}
	assert.Equal(t, 1, got[ColPM25])
	assert.Equal(t, 1, got[ColNO2])
	assert.Equal(t, 0, got[ColPM10])

	// 重复行只报告不删除
	out, report := cleanFrame(t, content)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 5, out.Nrow())
}

func TestClean_PaddedNumbersAreNotImputed(t *testing.T) {
	content := header +
		"Paris,France,2023-01-01,10 ,20,30,4,0.5,40,12.5,70,3.2\n" +
		"Paris,France,2023-01-02,\t10,22,31,5,0.6,41,13,72,3\n" +
		"Paris,France,2023-01-03,40,24,32,6,0.7,42,14,74,2.8\n"

	require.NoError(t, ValidateSchema(loadFrame(t, content), config.DefaultDataConfig()))

	out, report := cleanFrame(t, content)
	assert.Empty(t, report.Imputed)
	assert.Equal(t, []float64{10, 10, 40}, out.Col(ColPM25).Float())

	stats, err := Describe(loadFrame(t, content), []string{ColPM25})
	require.NoError(t, err)
	assert.Equal(t, 3, stats[0].Count)
	assert.InDelta(t, 20.0, stats[0].Mean, 1e-9)
}

func TestDuplicateCount_ComparesNumbersByValue(t *testing.T) {
	dcfg := config.DefaultDataConfig()
	content := header +
		"Paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2\n" +
		"Paris,France,2023-01-01,10.0,20,30,4,0.50,40,12.5,70,3.2\n" +
		"Paris,France,2023-01-01, 10,20,30,4,0.5,40,12.5,70,3.2\n" +
		"paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2\n"

	// 城市名按原文比较，只有前三行是重复的
	assert.Equal(t, 2, DuplicateCount(loadFrame(t, content), dcfg))

	missing := header +
		"Paris,France,2023-01-01,,20,30,4,0.5,40,12.5,70,3.2\n" +
		"Paris,France,2023-01-01,NA,20,30,4,0.5,40,12.5,70,3.2\n" +
		"Paris,France,2023-01-01,0,20,30,4,0.5,40,12.5,70,3.2\n"
	assert.Equal(t, 1, DuplicateCount(loadFrame(t, missing), dcfg))
}

func TestClean_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errType apperrors.ErrorType
	}{
		{
			name:    "renamed column",
			content: strings.Replace(sampleCSV, "PM2.5", "PM25", 1),
			errType: apperrors.ErrTypeShape,
		},
		{
			name:    "reordered columns",
			content: strings.Replace(sampleCSV, "PM2.5,PM10", "PM10,PM2.5", 1),
			errType: apperrors.ErrTypeShape,
		},
		{
			name: "extra column",
			content: "City,Country,Date,PM2.5,PM10,NO2,SO2,CO,O3,Temperature,Humidity,Wind Speed,AQI\n" +
				"Paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2,50\n",
			errType: apperrors.ErrTypeShape,
		},
		{
			name:    "non numeric value",
			content: header + "Paris,France,2023-01-01,10,abc,30,4,0.5,40,12.5,70,3.2\n",
			errType: apperrors.ErrTypeParsing,
		},
		{
			name:    "unparseable date",
			content: header + "Paris,France,yesterday,10,20,30,4,0.5,40,12.5,70,3.2\n",
			errType: apperrors.ErrTypeParsing,
		},
		{
			name:    "missing city",
			content: header + ",France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2\n",
			errType: apperrors.ErrTypeParsing,
		},
		{
			name:    "no rows",
			content: header,
			errType: apperrors.ErrTypeShape,
		},
		{
			name: "column entirely missing",
			content: header +
				"Paris,France,2023-01-01,,20,30,4,0.5,40,12.5,70,3.2\n" +
				"London,UK,2023-01-01,NA,20,30,4,0.5,40,12.5,70,3.2\n",
			errType: apperrors.ErrTypeShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewCleaner(config.DefaultDataConfig()).Clean(loadFrame(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.errType, apperrors.TypeOf(err), err.Error())
		})
	}
}

func TestValidateSchema_ReportsPosition(t *testing.T) {
	err := ValidateSchema(loadFrame(t, strings.Replace(sampleCSV, "NO2", "NOx", 1)), config.DefaultDataConfig())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 5, appErr.Context["position"])
	assert.Equal(t, "NOx", appErr.Context["column"])
}

func TestToObservations(t *testing.T) {
	out, _ := cleanFrame(t, sampleCSV)

	obs, err := ToObservations(out, config.DefaultDataConfig())
	require.NoError(t, err)
	require.Len(t, obs, 4)

	assert.Equal(t, "Paris", obs[1].City)
	assert.Equal(t, "France", obs[1].Country)
	assert.Equal(t, "2023-01-02", obs[1].Date.Format(DateLayout))
	assert.InDelta(t, 20.0, obs[1].PM25, 1e-9)
	assert.InDelta(t, 3.0, obs[1].WindSpeed, 1e-9)

	v, ok := obs[3].Measure(ColNO2)
	assert.True(t, ok)
	assert.InDelta(t, 31.0, v, 1e-9)

	_, ok = obs[0].Measure("AQI")
	assert.False(t, ok)
}

package file

import (
	"AirQualityEDA/src/apperrors"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `City,Country,Date,PM2.5,PM10,NO2,SO2,CO,O3,Temperature,Humidity,Wind Speed
Paris,France,2023-01-01,10,20,30,4,0.5,40,12.5,70,3.2
Paris,France,2023-01-02,,22,31,5,0.6,41,13.0,72,3.0
London,UK,2023-01-01,20,25,NA,6,0.7,35,9.0,80,5.1
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "air.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	df, err := LoadCSV(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, 12, df.Ncol())
	assert.Equal(t, "Wind Speed", df.Names()[11])
	for _, typ := range df.Types() {
		assert.Equal(t, series.String, typ)
	}

	pm := df.Col("PM2.5")
	assert.False(t, pm.Elem(0).IsNA())
	assert.True(t, pm.Elem(1).IsNA(), "empty cell is missing")
	assert.True(t, df.Col("NO2").Elem(2).IsNA(), "NA is missing")
	assert.Equal(t, "Paris", df.Col("City").Elem(0).String())
}

func TestLoadCSV_StripsBOM(t *testing.T) {
	df, err := LoadCSV(writeCSV(t, "\ufeff"+sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "City", df.Names()[0])
}

func TestReadCSV_KeepsCellWhitespace(t *testing.T) {
	content := " City ,Country\n Paris,France\nParis ,France\n"
	df, err := ReadCSV(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"City", "Country"}, df.Names())
	assert.Equal(t, []string{" Paris", "Paris "}, df.Col("City").Records())
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestLoadCSV_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "wrong column count",
			content: "City,Country,Date\nParis,France\n",
		},
		{
			name:    "bad quoting",
			content: "City,Country,Date\n\"Paris,France,2023-01-01\n",
		},
		{
			name:    "empty file",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeCSV(t, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing), err.Error())
		})
	}
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	df, err := LoadCSV(writeCSV(t, "City,Country,Date\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, []string{"City", "Country", "Date"}, df.Names())
}

func TestReadRecords_LineNumber(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("a,b\n1,2\n3\n"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 3, appErr.Context["line"])
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "air.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"City", "Country", "Date", "PM2.5"},
		{"Paris", "France", "2023-01-01", "10"},
		{"London", "UK", "2023-01-01", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := Load(path, "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, []string{"City", "Country", "Date", "PM2.5"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, "London", df.Col("City").Elem(1).String())
	assert.True(t, df.Col("PM2.5").Elem(1).IsNA())

	_, err = Load(path, "Missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeShape))
}

func TestLoadXLSX_MissingFile(t *testing.T) {
	_, err := LoadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), "Sheet1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

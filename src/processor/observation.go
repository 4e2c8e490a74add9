// observation.go
package processor

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/utils"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 数据集固定的数值列名
const (
	ColPM25        = "PM2.5"
	ColPM10        = "PM10"
	ColNO2         = "NO2"
	ColSO2         = "SO2"
	ColCO          = "CO"
	ColO3          = "O3"
	ColTemperature = "Temperature"
	ColHumidity    = "Humidity"
	ColWindSpeed   = "Wind Speed"
)

// MeasureColumns 九个数值字段，与 DataConfig 中的 float 列一一对应
var MeasureColumns = config.MeasureColumns

// Observation 数据集中的一行
type Observation struct {
	City    string
	Country string
	Date    time.Time

	PM25 float64
	PM10 float64
	NO2  float64
	SO2  float64
	CO   float64
	O3   float64

	Temperature float64
	Humidity    float64
	WindSpeed   float64
}

// Measure 按列名取数值字段
func (o Observation) Measure(column string) (float64, bool) {
	switch column {
	case ColPM25:
		return o.PM25, true
	case ColPM10:
		return o.PM10, true
	case ColNO2:
		return o.NO2, true
	case ColSO2:
		return o.SO2, true
	case ColCO:
		return o.CO, true
	case ColO3:
		return o.O3, true
	case ColTemperature:
		return o.Temperature, true
	case ColHumidity:
		return o.Humidity, true
	case ColWindSpeed:
		return o.WindSpeed, true
	}
	return 0, false
}

func (o *Observation) setMeasure(column string, v float64) {
	switch column {
	case ColPM25:
		o.PM25 = v
	case ColPM10:
		o.PM10 = v
	case ColNO2:
		o.NO2 = v
	case ColSO2:
		o.SO2 = v
	case ColCO:
		o.CO = v
	case ColO3:
		o.O3 = v
	case ColTemperature:
		o.Temperature = v
	case ColHumidity:
		o.Humidity = v
	case ColWindSpeed:
		o.WindSpeed = v
	}
}

// ToObservations 把清洗后的表转换为 Observation 切片
func ToObservations(df dataframe.DataFrame, dcfg *config.DataConfig) ([]Observation, error) {
	for _, name := range append([]string{dcfg.CityColumn, dcfg.CountryColumn, dcfg.DateColumn}, MeasureColumns...) {
		if !utils.HasColumn(df, name) {
			return nil, apperrors.NewShapeError(fmt.Sprintf("缺少列 %q", name), nil).
				WithContext("column", name)
		}
	}

	cities := df.Col(dcfg.CityColumn)
	countries := df.Col(dcfg.CountryColumn)
	dates := df.Col(dcfg.DateColumn)

	measures := make(map[string][]float64, len(MeasureColumns))
	for _, name := range MeasureColumns {
		measures[name] = utils.FloatValues(df.Col(name))
	}

	obs := make([]Observation, df.Nrow())
	for i := range obs {
		d, err := time.Parse(DateLayout, dates.Elem(i).String())
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("第 %d 行日期未清洗", i+1), err).
				WithContext("row", i+1)
		}

		obs[i] = Observation{
			City:    cities.Elem(i).String(),
			Country: stringOrEmpty(countries.Elem(i)),
			Date:    d,
		}
		for _, name := range MeasureColumns {
			obs[i].setMeasure(name, measures[name][i])
		}
	}
	return obs, nil
}

func stringOrEmpty(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	return el.String()
}

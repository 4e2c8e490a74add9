package config

import (
	"AirQualityEDA/src/apperrors"
	"fmt"
)

// MeasureColumns 观测记录中的九个数值字段
// 列可以重新排序或增减 string 列，但 float 列必须正好是这九个
var MeasureColumns = []string{
	"PM2.5", "PM10", "NO2", "SO2", "CO", "O3",
	"Temperature", "Humidity", "Wind Speed",
}

// DefaultDataConfig 全球空气质量数据集的固定表头
// City, Country, Date, PM2.5, PM10, NO2, SO2, CO, O3, Temperature, Humidity, Wind Speed
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		Columns: []ColumnSpec{
			{Name: "City", Type: TypeString, Required: true},
			{Name: "Country", Type: TypeString},
			{Name: "Date", Type: TypeDate, Required: true},
			{Name: "PM2.5", Type: TypeFloat},
			{Name: "PM10", Type: TypeFloat},
			{Name: "NO2", Type: TypeFloat},
			{Name: "SO2", Type: TypeFloat},
			{Name: "CO", Type: TypeFloat},
			{Name: "O3", Type: TypeFloat},
			{Name: "Temperature", Type: TypeFloat},
			{Name: "Humidity", Type: TypeFloat},
			{Name: "Wind Speed", Type: TypeFloat},
		},
		CityColumn:    "City",
		CountryColumn: "Country",
		DateColumn:    "Date",
		DateLayouts: []string{
			"2006-01-02",
			"2006-01-02 15:04:05",
			"2006/01/02",
			"2006/01/02 15:04:05",
			"01/02/2006",
			"2006-01-02T15:04:05Z07:00",
		},
		Pollutants:        []string{"PM2.5", "PM10", "NO2", "SO2", "CO", "O3"},
		PrimaryPollutants: []string{"PM2.5", "PM10", "NO2", "SO2", "CO"},
		ScatterX:          "PM2.5",
		ScatterY:          "NO2",
		BoxColumn:         "PM2.5",
	}
}

// applyDefaults 配置文件中缺省的字段用默认值补齐
func (dc *DataConfig) applyDefaults() {
	def := DefaultDataConfig()
	if len(dc.Columns) == 0 {
		dc.Columns = def.Columns
	}
	if dc.CityColumn == "" {
		dc.CityColumn = def.CityColumn
	}
	if dc.CountryColumn == "" {
		dc.CountryColumn = def.CountryColumn
	}
	if dc.DateColumn == "" {
		dc.DateColumn = def.DateColumn
	}
	if len(dc.DateLayouts) == 0 {
		dc.DateLayouts = def.DateLayouts
	}
	if len(dc.Pollutants) == 0 {
		dc.Pollutants = def.Pollutants
	}
	if len(dc.PrimaryPollutants) == 0 {
		dc.PrimaryPollutants = def.PrimaryPollutants
	}
	if dc.ScatterX == "" {
		dc.ScatterX = def.ScatterX
	}
	if dc.ScatterY == "" {
		dc.ScatterY = def.ScatterY
	}
	if dc.BoxColumn == "" {
		dc.BoxColumn = def.BoxColumn
	}
}

// Column 按列名查找列声明
func (dc *DataConfig) Column(name string) (ColumnSpec, bool) {
	for _, c := range dc.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ColumnNames 按声明顺序返回列名
func (dc *DataConfig) ColumnNames() []string {
	names := make([]string, len(dc.Columns))
	for i, c := range dc.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericColumns 声明为 float 的列
func (dc *DataConfig) NumericColumns() []string {
	var cols []string
	for _, c := range dc.Columns {
		if c.Type == TypeFloat {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// Validate 检查 schema 自身是否一致
func (dc *DataConfig) Validate() error {
	if len(dc.Columns) == 0 {
		return apperrors.NewConfigError("columns 不能为空", nil)
	}

	seen := make(map[string]bool, len(dc.Columns))
	for _, c := range dc.Columns {
		if c.Name == "" {
			return apperrors.NewConfigError("列名不能为空", nil)
		}
		if seen[c.Name] {
			return apperrors.NewConfigError(fmt.Sprintf("列 %q 重复声明", c.Name), nil)
		}
		seen[c.Name] = true

		switch c.Type {
		case TypeString, TypeDate, TypeFloat:
		default:
			return apperrors.NewConfigError(fmt.Sprintf("列 %q 类型 %q 不支持", c.Name, c.Type), nil)
		}
	}

	if err := dc.checkMeasures(); err != nil {
		return err
	}

	if err := dc.expect(dc.CityColumn, TypeString, "city_column"); err != nil {
		return err
	}
	if err := dc.expect(dc.CountryColumn, TypeString, "country_column"); err != nil {
		return err
	}
	if err := dc.expect(dc.DateColumn, TypeDate, "date_column"); err != nil {
		return err
	}
	if len(dc.DateLayouts) == 0 {
		return apperrors.NewConfigError("date_layouts 不能为空", nil)
	}

	for _, p := range dc.Pollutants {
		if err := dc.expect(p, TypeFloat, "pollutants"); err != nil {
			return err
		}
	}
	for _, p := range dc.PrimaryPollutants {
		if err := dc.expect(p, TypeFloat, "primary_pollutants"); err != nil {
			return err
		}
	}
	for key, col := range map[string]string{
		"scatter_x":  dc.ScatterX,
		"scatter_y":  dc.ScatterY,
		"box_column": dc.BoxColumn,
	} {
		if err := dc.expect(col, TypeFloat, key); err != nil {
			return err
		}
	}

	return nil
}

// checkMeasures float 列与 MeasureColumns 一一对应
func (dc *DataConfig) checkMeasures() error {
	declared := make(map[string]bool)
	for _, name := range dc.NumericColumns() {
		declared[name] = true
	}
	for _, name := range MeasureColumns {
		if !declared[name] {
			return apperrors.NewConfigError(fmt.Sprintf("缺少 float 列 %q", name), nil).
				WithContext("column", name)
		}
		delete(declared, name)
	}
	for _, name := range dc.NumericColumns() {
		if declared[name] {
			return apperrors.NewConfigError(fmt.Sprintf("float 列 %q 不是已知的观测字段", name), nil).
				WithContext("column", name)
		}
	}
	return nil
}

func (dc *DataConfig) expect(name, typ, key string) error {
	c, ok := dc.Column(name)
	if !ok {
		return apperrors.NewConfigError(fmt.Sprintf("%s 引用了未声明的列 %q", key, name), nil)
	}
	if c.Type != typ {
		return apperrors.NewConfigError(fmt.Sprintf("%s 列 %q 必须是 %s 类型", key, name, typ), nil)
	}
	return nil
}

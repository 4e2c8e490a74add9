package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// ParseDate 依次尝试多种日期格式
func ParseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches none of %v", s, layouts)
}

// ParseFloat 去除首尾空白后解析数字，NaN 和 Inf 视为无效
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// FloatValues 取出一列的数值，缺失值和无法解析的值为 NaN
// 字符串列按 ParseFloat 解析，"10 " 与 "10" 得到同一个值
func FloatValues(s series.Series) []float64 {
	if s.Type() == series.Float {
		return s.Float()
	}

	values := make([]float64, s.Len())
	for i := range values {
		el := s.Elem(i)
		if el.IsNA() {
			values[i] = math.NaN()
			continue
		}
		v, err := ParseFloat(el.String())
		if err != nil {
			values[i] = math.NaN()
			continue
		}
		values[i] = v
	}
	return values
}

// WriteDataFrame 把DataFrame写入工作簿的指定工作表，第一行为列名
func WriteDataFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("创建工作表 %s 失败: %w", sheetName, err)
	}

	// 写入列名
	colNames := df.Names()
	header := make([]interface{}, len(colNames))
	for i, name := range colNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("写入列名失败: %w", err)
	}

	// 写入数据，缺失值留空
	columns := make([]series.Series, len(colNames))
	for i, name := range colNames {
		columns[i] = df.Col(name)
	}
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		row := make([]interface{}, len(colNames))
		for colIdx, col := range columns {
			el := col.Elem(rowIdx)
			switch {
			case el.IsNA():
				row[colIdx] = nil
			case col.Type() == series.Float:
				row[colIdx] = el.Float()
			default:
				row[colIdx] = el.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", rowIdx+1, err)
		}
	}

	return nil
}

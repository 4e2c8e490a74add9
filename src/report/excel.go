// excel.go
package report

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/processor"
	"AirQualityEDA/src/utils"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// 工作表名
const (
	SheetDescribe    = "Describe"
	SheetCityMean    = "CityMean"
	SheetCityMax     = "CityMax"
	SheetCorrelation = "Correlation"
	SheetCleaned     = "Cleaned"
)

// Workbook 写入 Excel 报表的全部内容
type Workbook struct {
	Cleaned     dataframe.DataFrame
	Stats       []processor.ColumnStats
	Aggregates  *processor.CityAggregates
	Correlation *processor.CorrelationMatrix
}

// Save 生成报表工作簿，已存在的同名文件会被覆盖
func (wb Workbook) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("无法创建目录 %s", filepath.Dir(path)), err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// 1. 描述统计
	header := []interface{}{""}
	for _, s := range wb.Stats {
		header = append(header, s.Column)
	}
	rows := [][]interface{}{header}
	for i, label := range processor.DescribeLabels {
		row := []interface{}{label}
		for _, s := range wb.Stats {
			row = append(row, cellValue(s.Values()[i]))
		}
		rows = append(rows, row)
	}
	if err := writeSheet(f, SheetDescribe, rows); err != nil {
		return err
	}

	// 2. 城市均值、最大值
	if err := writeSheet(f, SheetCityMean, aggregateRows(wb.Aggregates, processor.StatMean)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetCityMax, aggregateRows(wb.Aggregates, processor.StatMax)); err != nil {
		return err
	}

	// 3. 相关矩阵
	if err := writeSheet(f, SheetCorrelation, correlationRows(wb.Correlation)); err != nil {
		return err
	}

	// 4. 清洗后的数据
	if err := utils.WriteDataFrame(f, SheetCleaned, wb.Cleaned); err != nil {
		return apperrors.NewIOError("写入清洗后数据失败", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewIOError("删除默认工作表失败", err)
	}
	if idx, err := f.GetSheetIndex(SheetDescribe); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("保存报表 %s 失败", path), err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("创建工作表 %s 失败", sheet), err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewIOError("计算单元格坐标失败", err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("写入工作表 %s 第 %d 行失败", sheet, i+1), err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 16); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("设置工作表 %s 列宽失败", sheet), err)
	}
	return nil
}

func aggregateRows(agg *processor.CityAggregates, stat processor.Stat) [][]interface{} {
	header := []interface{}{"City"}
	for _, p := range agg.Pollutants() {
		header = append(header, p)
	}
	rows := [][]interface{}{header}

	table := agg.Table(stat)
	for i, city := range agg.Cities() {
		row := []interface{}{city}
		for _, v := range table[i] {
			row = append(row, cellValue(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func correlationRows(m *processor.CorrelationMatrix) [][]interface{} {
	header := []interface{}{""}
	for _, c := range m.Columns {
		header = append(header, c)
	}
	rows := [][]interface{}{header}
	for i, name := range m.Columns {
		row := []interface{}{name}
		for j := range m.Columns {
			row = append(row, m.At(i, j))
		}
		rows = append(rows, row)
	}
	return rows
}

// cellValue NaN 写为空单元格
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

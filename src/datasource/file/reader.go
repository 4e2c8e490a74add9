// reader.go
package file

import (
	"AirQualityEDA/src/apperrors"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NaNValues 读入时视为缺失值的字符串
var NaNValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<nil>"}

// Load 按扩展名读取数据集，.xlsx 读取 sheetName 工作表，其余按 CSV 处理
func Load(filePath, sheetName string) (dataframe.DataFrame, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		return LoadXLSX(filePath, sheetName)
	}
	return LoadCSV(filePath)
}

// LoadCSV 读取CSV为DataFrame，所有列保持原始字符串，类型转换由清洗阶段完成
func LoadCSV(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewIOError(fmt.Sprintf("无法打开数据文件 %s", filePath), err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV 从任意 Reader 读取CSV为DataFrame
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return recordsToDataFrame(records)
}

// ReadRecords 读取CSV全部记录，去除UTF-8 BOM，字段数与表头不一致时报错
func ReadRecords(r io.Reader) ([][]string, error) {
	// Excel 导出的 CSV 常带 BOM，会污染第一个列名
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = 0 // 以表头字段数为准
	// 字段保留原始空白，城市名的空白差异由分组键决定是否合并

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, apperrors.NewParsingError("CSV格式错误", err).
				WithContext("line", parseErr.Line)
		}
		return nil, apperrors.NewIOError("读取CSV失败", err)
	}

	if len(records) == 0 {
		return nil, apperrors.NewParsingError("CSV文件为空，缺少表头", nil)
	}
	for i := range records[0] {
		records[0][i] = strings.TrimSpace(records[0][i])
	}
	return records, nil
}

// LoadXLSX 读取xlsx工作表，第一行为表头
func LoadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		if _, statErr := os.Stat(filePath); statErr != nil {
			return dataframe.DataFrame{}, apperrors.NewIOError(fmt.Sprintf("无法打开数据文件 %s", filePath), statErr)
		}
		return dataframe.DataFrame{}, apperrors.NewParsingError("xlsx文件格式错误", err)
	}

	// 2. 获取工作表
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		return dataframe.DataFrame{}, apperrors.NewShapeError(fmt.Sprintf("excel文件中没有工作表 %q", sheetName), nil)
	}

	// 3. 转换为记录
	records, err := sheetToRecords(sheet)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return recordsToDataFrame(records)
}

// sheetToRecords 将xlsx.Sheet转换为字符串记录，行宽不一致视为格式错误
func sheetToRecords(sheet *xlsx.Sheet) ([][]string, error) {
	if len(sheet.Rows) == 0 {
		return nil, apperrors.NewParsingError("工作表为空，缺少表头", nil)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)

	for rowIdx, row := range sheet.Rows[1:] {
		if row == nil || isEmptyRow(row) {
			continue
		}
		if len(row.Cells) > len(headers) {
			return nil, apperrors.NewParsingError("数据行的列数多于表头", nil).
				WithContext("line", rowIdx+2)
		}

		// 末尾空单元格不会出现在 Cells 中，补齐
		values := make([]string, len(headers))
		for i, cell := range row.Cells {
			values[i] = cell.String()
		}
		records = append(records, values)
	}
	return records, nil
}

func isEmptyRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if strings.TrimSpace(cell.String()) != "" {
			return false
		}
	}
	return true
}

// recordsToDataFrame 构造全字符串列的DataFrame，NaNValues 标记为缺失
func recordsToDataFrame(records [][]string) (dataframe.DataFrame, error) {
	headers := records[0]
	if len(headers) == 0 {
		return dataframe.DataFrame{}, apperrors.NewShapeError("表头为空", nil)
	}

	// 只有表头时 LoadRecords 无法推断列，直接构造空列
	if len(records) == 1 {
		seriesList := make([]series.Series, len(headers))
		for i, name := range headers {
			seriesList[i] = series.New([]string{}, series.String, name)
		}
		df := dataframe.New(seriesList...)
		if df.Err != nil {
			return dataframe.DataFrame{}, apperrors.NewShapeError("构造DataFrame失败", df.Err)
		}
		return df, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(NaNValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.NewShapeError("构造DataFrame失败", df.Err)
	}
	return df, nil
}

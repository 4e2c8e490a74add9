// cleaner.go
package processor

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/utils"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// DateLayout 清洗后日期列的统一格式
const DateLayout = "2006-01-02"

// ColumnCount 列名与计数
type ColumnCount struct {
	Column string
	Count  int
}

// Imputation 一列的均值填充记录
type Imputation struct {
	Column string
	Mean   float64 // 填充前按非缺失值计算的均值
	Filled int     // 被填充的单元格数
}

// CleanReport 清洗过程的观测信息，重复行只报告不删除
type CleanReport struct {
	Rows          int
	MissingBefore []ColumnCount
	Duplicates    int
	Imputed       []Imputation
	MissingAfter  []ColumnCount
}

// Missing 返回某列清洗后的缺失数
func (r CleanReport) Missing(column string) int {
	for _, c := range r.MissingAfter {
		if c.Column == column {
			return c.Count
		}
	}
	return 0
}

// Cleaner 数据清洗，输入表不会被修改
type Cleaner struct {
	Dcfg *config.DataConfig
}

func NewCleaner(dcfg *config.DataConfig) *Cleaner {
	return &Cleaner{Dcfg: dcfg}
}

// Clean 校验 schema 后依次解析日期、用列均值填充数值列缺失值，返回新表
func (c *Cleaner) Clean(df dataframe.DataFrame) (dataframe.DataFrame, CleanReport, error) {
	if err := ValidateSchema(df, c.Dcfg); err != nil {
		return dataframe.DataFrame{}, CleanReport{}, err
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, CleanReport{}, apperrors.NewShapeError("数据集没有数据行", nil)
	}

	report := CleanReport{
		Rows:          df.Nrow(),
		MissingBefore: MissingCounts(df),
		Duplicates:    DuplicateCount(df, c.Dcfg),
	}

	out := df.Copy()

	// 1. 标准化日期字段
	dates, err := c.parseDates(out.Col(c.Dcfg.DateColumn))
	if err != nil {
		return dataframe.DataFrame{}, CleanReport{}, err
	}
	out = out.Mutate(series.New(dates, series.String, c.Dcfg.DateColumn))
	if out.Err != nil {
		return dataframe.DataFrame{}, CleanReport{}, apperrors.NewShapeError("写回日期列失败", out.Err)
	}

	// 2. 数值列均值填充
	for _, name := range c.Dcfg.NumericColumns() {
		values, imp, err := imputeMean(out.Col(name))
		if err != nil {
			return dataframe.DataFrame{}, CleanReport{}, err
		}
		out = out.Mutate(series.New(values, series.Float, name))
		if out.Err != nil {
			return dataframe.DataFrame{}, CleanReport{}, apperrors.NewShapeError(fmt.Sprintf("写回列 %q 失败", name), out.Err)
		}
		if imp.Filled > 0 {
			report.Imputed = append(report.Imputed, imp)
		}
	}

	report.MissingAfter = MissingCounts(out)
	return out, report, nil
}

func (c *Cleaner) parseDates(col series.Series) ([]string, error) {
	dates := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			return nil, apperrors.NewParsingError(fmt.Sprintf("第 %d 行日期缺失", i+1), nil).
				WithContext("row", i+1).
				WithContext("column", c.Dcfg.DateColumn)
		}
		t, err := utils.ParseDate(el.String(), c.Dcfg.DateLayouts)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("第 %d 行日期无法解析", i+1), err).
				WithContext("row", i+1).
				WithContext("column", c.Dcfg.DateColumn)
		}
		dates[i] = t.Format(DateLayout)
	}
	return dates, nil
}

// imputeMean 均值在任何替换之前计算，填充不会影响它所使用的均值
func imputeMean(col series.Series) ([]float64, Imputation, error) {
	values := utils.FloatValues(col)
	imp := Imputation{Column: col.Name}

	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == len(values) {
		return values, imp, nil
	}
	if len(present) == 0 {
		return nil, imp, apperrors.NewShapeError(fmt.Sprintf("列 %q 全部缺失，无法计算均值", col.Name), nil).
			WithContext("column", col.Name)
	}

	imp.Mean = stat.Mean(present, nil)
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = imp.Mean
			imp.Filled++
		}
	}
	return values, imp, nil
}

// MissingCounts 每列缺失值个数，按列顺序
func MissingCounts(df dataframe.DataFrame) []ColumnCount {
	counts := make([]ColumnCount, 0, df.Ncol())
	for _, name := range df.Names() {
		n := 0
		for _, na := range df.Col(name).IsNaN() {
			if na {
				n++
			}
		}
		counts = append(counts, ColumnCount{Column: name, Count: n})
	}
	return counts
}

// DuplicateCount 与之前某行完全相同的行数(第一次出现的不计)
// float 列按解析后的数值比较，"10" 与 "10.0" 视为相同；缺失值之间视为相同
func DuplicateCount(df dataframe.DataFrame, dcfg *config.DataConfig) int {
	if df.Nrow() <= 1 {
		return 0
	}

	names := df.Names()
	cells := make([][]string, len(names))
	for j, name := range names {
		col := df.Col(name)
		cells[j] = make([]string, col.Len())
		if spec, ok := dcfg.Column(name); ok && spec.Type == config.TypeFloat {
			for i, v := range utils.FloatValues(col) {
				if math.IsNaN(v) {
					cells[j][i] = missingKey
					continue
				}
				cells[j][i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			continue
		}
		for i := 0; i < col.Len(); i++ {
			el := col.Elem(i)
			if el.IsNA() {
				cells[j][i] = missingKey
				continue
			}
			cells[j][i] = el.String()
		}
	}

	seen := make(map[string]struct{}, df.Nrow())
	row := make([]string, len(names))
	dup := 0
	for i := 0; i < df.Nrow(); i++ {
		for j := range names {
			row[j] = cells[j][i]
		}
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dup++
			continue
		}
		seen[key] = struct{}{}
	}
	return dup
}

// missingKey 缺失单元格在行比较中的占位
const missingKey = "\x00"

// text.go
package report

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/chart"
	"AirQualityEDA/src/processor"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
)

// Printer 把各阶段结果以对齐的表格写到 io.Writer(通常是标准输出)
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// FormatFloat 报表中的数值格式，NaN 原样显示
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// table 写一个标题和一张表，列之间用制表符分隔
func (p *Printer) table(title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(p.w, "\n== %s ==\n", title); err != nil {
		return apperrors.NewIOError("写入报告失败", err)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return apperrors.NewIOError("写入报告失败", err)
	}
	return nil
}

// Preview 打印前 n 行
func (p *Printer) Preview(df dataframe.DataFrame, n int) error {
	records := df.Records()
	if n > len(records)-1 {
		n = len(records) - 1
	}

	header := append([]string{""}, records[0]...)
	rows := make([][]string, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, append([]string{strconv.Itoa(i - 1)}, records[i]...))
	}
	return p.table(fmt.Sprintf("Preview (first %d rows)", n), header, rows)
}

// Info 列名、非缺失数和类型
func (p *Printer) Info(df dataframe.DataFrame) error {
	types := df.Types()
	rows := make([][]string, 0, df.Ncol())
	for i, name := range df.Names() {
		missing := 0
		for _, na := range df.Col(name).IsNaN() {
			if na {
				missing++
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			name,
			strconv.Itoa(df.Nrow() - missing),
			string(types[i]),
		})
	}
	title := fmt.Sprintf("Info (%d rows, %d columns)", df.Nrow(), df.Ncol())
	return p.table(title, []string{"#", "Column", "Non-Null Count", "Dtype"}, rows)
}

// Cleaning 清洗前后的缺失数、重复行数和填充记录
func (p *Printer) Cleaning(r processor.CleanReport) error {
	after := make(map[string]int, len(r.MissingAfter))
	for _, c := range r.MissingAfter {
		after[c.Column] = c.Count
	}
	rows := make([][]string, 0, len(r.MissingBefore))
	for _, c := range r.MissingBefore {
		rows = append(rows, []string{c.Column, strconv.Itoa(c.Count), strconv.Itoa(after[c.Column])})
	}
	if err := p.table("Missing values", []string{"Column", "Before", "After"}, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(p.w, "\nDuplicate rows: %d\n", r.Duplicates); err != nil {
		return apperrors.NewIOError("写入报告失败", err)
	}

	if len(r.Imputed) == 0 {
		return nil
	}
	imputed := make([][]string, len(r.Imputed))
	for i, imp := range r.Imputed {
		imputed[i] = []string{imp.Column, FormatFloat(imp.Mean), strconv.Itoa(imp.Filled)}
	}
	return p.table("Mean imputation", []string{"Column", "Mean", "Filled"}, imputed)
}

// Describe 行为统计量、列为字段
func (p *Printer) Describe(stats []processor.ColumnStats) error {
	header := []string{""}
	for _, s := range stats {
		header = append(header, s.Column)
	}

	rows := make([][]string, len(processor.DescribeLabels))
	for i, label := range processor.DescribeLabels {
		rows[i] = []string{label}
		for _, s := range stats {
			rows[i] = append(rows[i], FormatFloat(s.Values()[i]))
		}
	}
	return p.table("Summary statistics", header, rows)
}

// Aggregates 城市 × 污染物的均值或最大值
func (p *Printer) Aggregates(title string, agg *processor.CityAggregates, stat processor.Stat) error {
	header := append([]string{"City"}, agg.Pollutants()...)
	table := agg.Table(stat)

	rows := make([][]string, len(table))
	for i, city := range agg.Cities() {
		rows[i] = []string{city}
		for _, v := range table[i] {
			rows[i] = append(rows[i], FormatFloat(v))
		}
	}
	return p.table(title, header, rows)
}

// Correlation 相关矩阵，无法计算的系数标记 *
func (p *Printer) Correlation(m *processor.CorrelationMatrix) error {
	header := append([]string{""}, m.Columns...)
	rows := make([][]string, len(m.Columns))
	for i, name := range m.Columns {
		rows[i] = []string{name}
		for j := range m.Columns {
			cell := FormatFloat(m.At(i, j))
			if m.Undefined[i][j] {
				cell += "*"
			}
			rows[i] = append(rows[i], cell)
		}
	}
	if err := p.table("Correlation matrix", header, rows); err != nil {
		return err
	}
	if m.HasUndefined() {
		if _, err := fmt.Fprintln(p.w, "* undefined (zero variance), shown as 0"); err != nil {
			return apperrors.NewIOError("写入报告失败", err)
		}
	}
	return nil
}

// Artifacts 已生成的文件列表
func (p *Printer) Artifacts(artifacts []chart.Artifact, workbook string) error {
	rows := make([][]string, 0, len(artifacts)+1)
	for _, a := range artifacts {
		rows = append(rows, []string{a.Name, a.Path})
	}
	if workbook != "" {
		rows = append(rows, []string{"workbook", workbook})
	}
	return p.table("Output files", []string{"Name", "Path"}, rows)
}

// Warnings 运行期间的警告，没有警告时不输出
func (p *Printer) Warnings(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(p.w, "\n== Warnings (%d) ==\n", len(lines)); err != nil {
		return apperrors.NewIOError("写入报告失败", err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return apperrors.NewIOError("写入报告失败", err)
		}
	}
	return nil
}

package processor

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/utils"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats 一列的描述统计
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64 // 样本标准差(n-1)
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// DescribeLabels describe 表的行名
var DescribeLabels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Values 按 DescribeLabels 顺序返回
func (s ColumnStats) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
}

// Describe 对指定数值列计算描述统计，缺失值不参与计算
func Describe(df dataframe.DataFrame, columns []string) ([]ColumnStats, error) {
	stats := make([]ColumnStats, 0, len(columns))
	for _, name := range columns {
		if !utils.HasColumn(df, name) {
			return nil, apperrors.NewShapeError(fmt.Sprintf("缺少列 %q", name), nil).
				WithContext("column", name)
		}
		stats = append(stats, describeValues(name, utils.FloatValues(df.Col(name))))
	}
	return stats, nil
}

func describeValues(name string, values []float64) ColumnStats {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}

	s := ColumnStats{Column: name, Count: len(x)}
	if len(x) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(x)
	s.Mean = stat.Mean(x, nil)
	if len(x) > 1 {
		s.Std = stat.StdDev(x, nil)
	} else {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	s.Q25 = Quantile(x, 0.25)
	s.Q50 = Quantile(x, 0.50)
	s.Q75 = Quantile(x, 0.75)
	return s
}

// Quantile 已排序数据的分位数，在相邻秩之间线性插值
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

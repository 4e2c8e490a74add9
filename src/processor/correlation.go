package processor

import (
	"AirQualityEDA/src/apperrors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix 数值字段两两之间的 Pearson 相关系数
type CorrelationMatrix struct {
	Columns   []string
	Values    [][]float64
	Undefined [][]bool // 方差为 0 或样本不足，系数记为 0
}

// Correlate 计算相关矩阵：对角线为 1，上下三角对称，取值截断到 [-1, 1]
func Correlate(obs []Observation, columns []string) (*CorrelationMatrix, error) {
	data := make([][]float64, len(columns))
	for i, name := range columns {
		data[i] = make([]float64, len(obs))
		for j, o := range obs {
			v, ok := o.Measure(name)
			if !ok {
				return nil, apperrors.NewShapeError(fmt.Sprintf("未知的数值列 %q", name), nil).
					WithContext("column", name)
			}
			data[i][j] = v
		}
	}

	n := len(columns)
	m := &CorrelationMatrix{
		Columns:   append([]string(nil), columns...),
		Values:    make([][]float64, n),
		Undefined: make([][]bool, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Undefined[i] = make([]bool, n)
	}

	for i := 0; i < n; i++ {
		m.Values[i][i] = 1
		for j := i + 1; j < n; j++ {
			r := math.NaN()
			if len(obs) > 1 {
				r = stat.Correlation(data[i], data[j], nil)
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				m.Undefined[i][j], m.Undefined[j][i] = true, true
				r = 0
			}
			r = math.Max(-1, math.Min(1, r))
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m, nil
}

// At 第 i 行第 j 列
func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// Get 按列名取系数
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrelationMatrix) index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasUndefined 是否存在无法计算的系数
func (m *CorrelationMatrix) HasUndefined() bool {
	for i := range m.Undefined {
		for j := range m.Undefined[i] {
			if m.Undefined[i][j] {
				return true
			}
		}
	}
	return false
}

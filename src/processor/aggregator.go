package processor

import (
	"AirQualityEDA/src/apperrors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// KeyFunc 把城市名映射为分组键
type KeyFunc func(city string) string

// ExactCity 原样分组，大小写或空白不同的城市名分属不同组
func ExactCity(city string) string {
	return city
}

// NormalizeCity 去除首尾空白、合并连续空白并做大小写折叠
func NormalizeCity(city string) string {
	return cases.Fold().String(strings.Join(strings.Fields(city), " "))
}

// DisplayName 分组的显示名：合并空白后的写法仍落在同一分组时使用它，否则保留原文
// 保证 keyFunc(DisplayName(c)) == keyFunc(c)，按显示名查询总能回到自己的分组
func DisplayName(city string, keyFunc KeyFunc) string {
	collapsed := strings.Join(strings.Fields(city), " ")
	if collapsed != "" && keyFunc(collapsed) == keyFunc(city) {
		return collapsed
	}
	return city
}

// Stat 聚合指标
type Stat int

const (
	StatMean Stat = iota
	StatMax
	StatMin
)

func (s Stat) String() string {
	switch s {
	case StatMean:
		return "mean"
	case StatMax:
		return "max"
	case StatMin:
		return "min"
	default:
		return "unknown"
	}
}

type accumulator struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (a *accumulator) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.count++
	a.sum += v
}

func (a *accumulator) value(s Stat) float64 {
	if a == nil || a.count == 0 {
		return math.NaN()
	}
	switch s {
	case StatMean:
		return a.sum / float64(a.count)
	case StatMax:
		return a.max
	case StatMin:
		return a.min
	}
	return math.NaN()
}

// cityGroup 一个城市的累加结果
type cityGroup struct {
	name string // 由第一次出现的写法得到的显示名
	rows int
	acc  map[string]*accumulator
}

// CityAggregates 城市 → 各污染物均值/最大值
type CityAggregates struct {
	pollutants []string
	keyFunc    KeyFunc
	groups     map[string]*cityGroup
	order      []string // 按城市名排序的分组键
	total      int
}

// Aggregate 按城市对观测做一次遍历，累加每个污染物的计数、和、最小值、最大值
func Aggregate(obs []Observation, pollutants []string, keyFunc KeyFunc) (*CityAggregates, error) {
	if keyFunc == nil {
		keyFunc = ExactCity
	}
	var zero Observation
	for _, p := range pollutants {
		if _, ok := zero.Measure(p); !ok {
			return nil, apperrors.NewShapeError(fmt.Sprintf("未知的污染物列 %q", p), nil).
				WithContext("column", p)
		}
	}

	agg := &CityAggregates{
		pollutants: append([]string(nil), pollutants...),
		keyFunc:    keyFunc,
		groups:     make(map[string]*cityGroup),
	}

	for _, o := range obs {
		key := keyFunc(o.City)
		g, ok := agg.groups[key]
		if !ok {
			g = &cityGroup{
				name: DisplayName(o.City, keyFunc),
				acc:  make(map[string]*accumulator, len(pollutants)),
			}
			for _, p := range pollutants {
				g.acc[p] = &accumulator{}
			}
			agg.groups[key] = g
		}
		g.rows++
		for _, p := range pollutants {
			v, _ := o.Measure(p)
			g.acc[p].add(v)
		}
		agg.total++
	}

	for key := range agg.groups {
		agg.order = append(agg.order, key)
	}
	sort.Slice(agg.order, func(i, j int) bool {
		a, b := agg.groups[agg.order[i]].name, agg.groups[agg.order[j]].name
		if a == b {
			return agg.order[i] < agg.order[j]
		}
		return a < b
	})

	return agg, nil
}

// Cities 城市名，按字母序
func (a *CityAggregates) Cities() []string {
	names := make([]string, len(a.order))
	for i, key := range a.order {
		names[i] = a.groups[key].name
	}
	return names
}

func (a *CityAggregates) Pollutants() []string {
	return append([]string(nil), a.pollutants...)
}

// Total 参与分组的行数
func (a *CityAggregates) Total() int {
	return a.total
}

// Count 某城市的行数，未知城市返回 0
func (a *CityAggregates) Count(city string) int {
	if g, ok := a.groups[a.keyFunc(city)]; ok {
		return g.rows
	}
	return 0
}

func (a *CityAggregates) Mean(city, pollutant string) float64 {
	return a.Value(city, pollutant, StatMean)
}

func (a *CityAggregates) Max(city, pollutant string) float64 {
	return a.Value(city, pollutant, StatMax)
}

func (a *CityAggregates) Min(city, pollutant string) float64 {
	return a.Value(city, pollutant, StatMin)
}

// Value 未知城市或污染物返回 NaN
func (a *CityAggregates) Value(city, pollutant string, s Stat) float64 {
	g, ok := a.groups[a.keyFunc(city)]
	if !ok {
		return math.NaN()
	}
	return g.acc[pollutant].value(s)
}

// Series 某污染物在各城市的指标，顺序与 Cities() 一致
func (a *CityAggregates) Series(pollutant string, s Stat) []float64 {
	out := make([]float64, len(a.order))
	for i, key := range a.order {
		out[i] = a.groups[key].acc[pollutant].value(s)
	}
	return out
}

// Table 行为城市、列为污染物
func (a *CityAggregates) Table(s Stat) [][]float64 {
	rows := make([][]float64, len(a.order))
	for i, key := range a.order {
		g := a.groups[key]
		rows[i] = make([]float64, len(a.pollutants))
		for j, p := range a.pollutants {
			rows[i][j] = g.acc[p].value(s)
		}
	}
	return rows
}

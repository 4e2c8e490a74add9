// renderer.go
package chart

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/processor"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// 输出文件名
const (
	FileMeanByCity     = "mean_pollutants_by_city.png"
	FileMaxByCity      = "max_pollutants_by_city.png"
	FileHeatmap        = "correlation_heatmap.png"
	FileDistribution   = "distribution_overlay.png"
	FileDistributionJS = "distribution_overlay.html"
	FileHistograms     = "pollutant_histograms.png"
	FilePrimaryByCity  = "avg_primary_pollutants_by_city.png"
	FileScatter        = "pm25_vs_no2_scatter.png"
	FileBoxPlot        = "pm25_boxplot_by_city.png"
)

// Artifact 一个已写出的图表文件
type Artifact struct {
	Name string
	Path string
}

// Input 绘图所需的全部分析结果
type Input struct {
	Observations []processor.Observation
	Aggregates   *processor.CityAggregates
	Correlation  *processor.CorrelationMatrix
}

// Renderer 把分析结果写成图表文件
type Renderer struct {
	Dir     string
	Cfg     config.ChartConfig
	Dcfg    *config.DataConfig
	KeyFunc processor.KeyFunc // 散点图和箱线图的城市分组方式
}

func NewRenderer(dir string, cfg config.ChartConfig, dcfg *config.DataConfig, keyFunc processor.KeyFunc) *Renderer {
	if keyFunc == nil {
		keyFunc = processor.ExactCity
	}
	return &Renderer{Dir: dir, Cfg: cfg, Dcfg: dcfg, KeyFunc: keyFunc}
}

// RenderAll 依次生成全部图表，任何一张失败即返回
func (r *Renderer) RenderAll(in Input) ([]Artifact, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("无法创建输出目录 %s", r.Dir), err)
	}

	steps := []struct {
		name string
		fn   func(path string) error
	}{
		{FileMeanByCity, func(path string) error {
			return r.BarsByCity(path, "Mean pollutant levels by city", in.Aggregates, r.Dcfg.Pollutants, processor.StatMean)
		}},
		{FileMaxByCity, func(path string) error {
			return r.BarsByCity(path, "Max pollutant levels by city", in.Aggregates, r.Dcfg.Pollutants, processor.StatMax)
		}},
		{FileHeatmap, func(path string) error {
			return r.Heatmap(path, in.Correlation)
		}},
		{FileDistribution, func(path string) error {
			return r.DistributionOverlay(path, in.Observations, r.Dcfg.NumericColumns())
		}},
		{FileHistograms, func(path string) error {
			return r.HistogramGrid(path, in.Observations, r.Dcfg.PrimaryPollutants)
		}},
		{FilePrimaryByCity, func(path string) error {
			return r.BarsByCity(path, "Average primary pollutant levels by city", in.Aggregates, r.Dcfg.PrimaryPollutants, processor.StatMean)
		}},
		{FileScatter, func(path string) error {
			return r.Scatter(path, in.Observations, r.Dcfg.ScatterX, r.Dcfg.ScatterY)
		}},
		{FileBoxPlot, func(path string) error {
			return r.BoxPlot(path, in.Observations, r.Dcfg.BoxColumn)
		}},
	}
	if r.Cfg.HTML {
		steps = append(steps, struct {
			name string
			fn   func(path string) error
		}{FileDistributionJS, func(path string) error {
			return r.DistributionHTML(path, in.Observations, r.Dcfg.NumericColumns())
		}})
	}

	artifacts := make([]Artifact, 0, len(steps))
	for _, s := range steps {
		path := filepath.Join(r.Dir, s.name)
		if err := s.fn(path); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, Artifact{Name: s.name, Path: path})
	}
	return artifacts, nil
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	w := vg.Length(r.Cfg.Width) * vg.Inch
	h := vg.Length(r.Cfg.Height) * vg.Inch
	if err := p.Save(w, h, path); err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("保存图表 %s 失败", filepath.Base(path)), err)
	}
	return nil
}

// checkFinite 绘图数据中不允许出现 NaN 或 Inf
func checkFinite(chart, series string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.NewRenderError(fmt.Sprintf("%s: %s 第 %d 个值不是有限数 (%v)", chart, series, i+1, v), nil).
				WithContext("chart", chart).
				WithContext("series", series)
		}
	}
	return nil
}

// measureValues 取出一个数值字段的全部观测值
func measureValues(obs []processor.Observation, column string) ([]float64, error) {
	out := make([]float64, len(obs))
	for i, o := range obs {
		v, ok := o.Measure(column)
		if !ok {
			return nil, apperrors.NewRenderError(fmt.Sprintf("未知的数值列 %q", column), nil).
				WithContext("column", column)
		}
		out[i] = v
	}
	return out, nil
}

type cityObservations struct {
	name string
	obs  []processor.Observation
}

// groupByCity 按城市分组，显示名与 CityAggregates.Cities() 一致，按显示名排序
func (r *Renderer) groupByCity(obs []processor.Observation) []cityObservations {
	index := make(map[string]int)
	var groups []cityObservations
	for _, o := range obs {
		key := r.KeyFunc(o.City)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, cityObservations{name: processor.DisplayName(o.City, r.KeyFunc)})
		}
		groups[i].obs = append(groups[i].obs, o)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].name < groups[j].name
	})
	return groups
}

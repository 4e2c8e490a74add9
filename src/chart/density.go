package chart

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/processor"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
)

// Density 在 [lo, hi] 上等宽分箱的密度，各箱面积之和为 1
func Density(values []float64, lo, hi float64, bins int) []float64 {
	density := make([]float64, bins)
	if len(values) == 0 || bins <= 0 {
		return density
	}
	width := (hi - lo) / float64(bins)
	if width <= 0 {
		// 所有值相同，全部计入第一个箱
		density[0] = 1
		return density
	}

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		density[i]++
	}
	scale := 1 / (float64(len(values)) * width)
	for i := range density {
		density[i] *= scale
	}
	return density
}

// DistributionHTML 交互式密度叠加图，所有字段共用一组分箱
func (r *Renderer) DistributionHTML(path string, obs []processor.Observation, columns []string) error {
	const title = "Distribution of pollutants and weather fields"
	if len(obs) == 0 {
		return apperrors.NewRenderError(title+": 没有观测数据", nil)
	}

	all := make(map[string][]float64, len(columns))
	var lo, hi float64
	for i, column := range columns {
		values, err := measureValues(obs, column)
		if err != nil {
			return err
		}
		if err := checkFinite(title, column, values); err != nil {
			return err
		}
		all[column] = values

		min, max := floats.Min(values), floats.Max(values)
		if i == 0 || min < lo {
			lo = min
		}
		if i == 0 || max > hi {
			hi = max
		}
	}

	bins := r.Cfg.DensityBins
	width := (hi - lo) / float64(bins)
	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f", lo+(float64(i)+0.5)*width)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%dpx", int(r.Cfg.Width*100)),
			Height:    fmt.Sprintf("%dpx", int(r.Cfg.Height*100)),
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Density"}),
	)
	line.SetXAxis(labels)
	for _, column := range columns {
		density := Density(all[column], lo, hi, bins)
		data := make([]opts.LineData, len(density))
		for i, d := range density {
			data[i] = opts.LineData{Value: d}
		}
		line.AddSeries(column, data)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("无法创建 %s", filepath.Base(path)), err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("写入 %s 失败", filepath.Base(path)), err)
	}
	return nil
}

package chart

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/processor"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// rotateX X 轴刻度标签倾斜，城市名较多时避免重叠
func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// BarsByCity 分组柱状图：每个城市一组，每个污染物一根柱子
func (r *Renderer) BarsByCity(path, title string, agg *processor.CityAggregates, pollutants []string, stat processor.Stat) error {
	if agg == nil || len(agg.Cities()) == 0 {
		return apperrors.NewRenderError(title+": 没有城市数据", nil)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "City"
	p.Y.Label.Text = "Concentration"
	p.Legend.Top = true

	n := len(pollutants)
	barWidth := vg.Points(60 / float64(n))
	for i, pollutant := range pollutants {
		values := agg.Series(pollutant, stat)
		if err := checkFinite(title, pollutant, values); err != nil {
			return err
		}

		bars, err := plotter.NewBarChart(plotter.Values(values), barWidth)
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("%s: 构造 %s 柱子失败", title, pollutant), err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * barWidth

		p.Add(bars)
		p.Legend.Add(pollutant, bars)
	}
	p.NominalX(agg.Cities()...)
	rotateX(p)

	return r.save(p, path)
}

// correlationGrid 实现 plotter.GridXYZ，第一行画在最上面
type correlationGrid struct {
	m *processor.CorrelationMatrix
}

func (g correlationGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g correlationGrid) Z(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.At(n-1-r, c)
}

func (g correlationGrid) X(c int) float64 { return float64(c) }
func (g correlationGrid) Y(r int) float64 { return float64(r) }

// Heatmap 相关矩阵热力图，蓝红发散色板固定在 [-1, 1]，格子内标注系数
func (r *Renderer) Heatmap(path string, m *processor.CorrelationMatrix) error {
	const title = "Correlation Heatmap"
	if m == nil || len(m.Columns) == 0 {
		return apperrors.NewRenderError(title+": 相关矩阵为空", nil)
	}
	for i, row := range m.Values {
		if err := checkFinite(title, m.Columns[i], row); err != nil {
			return err
		}
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	grid := correlationGrid{m: m}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min = -1
	hm.Max = 1

	n := len(m.Columns)
	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(n - 1 - row)})
			labels = append(labels, fmt.Sprintf("%.2f", m.At(row, col)))
		}
	}
	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return apperrors.NewRenderError(title+": 构造标注失败", err)
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = draw.XCenter
		annotations.TextStyle[i].YAlign = draw.YCenter
	}

	yNames := make([]string, n)
	for i, c := range m.Columns {
		yNames[n-1-i] = c
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(hm, annotations)
	p.NominalX(m.Columns...)
	p.NominalY(yNames...)
	rotateX(p)

	return r.save(p, path)
}

// DistributionOverlay 九个数值字段的密度归一化直方图叠加在同一坐标系
func (r *Renderer) DistributionOverlay(path string, obs []processor.Observation, columns []string) error {
	const title = "Distribution of pollutants and weather fields"
	if len(obs) == 0 {
		return apperrors.NewRenderError(title+": 没有观测数据", nil)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Value"
	p.Y.Label.Text = "Density"
	p.Legend.Top = true

	for i, column := range columns {
		values, err := measureValues(obs, column)
		if err != nil {
			return err
		}
		if err := checkFinite(title, column, values); err != nil {
			return err
		}

		h, err := plotter.NewHist(plotter.Values(values), r.Cfg.DensityBins)
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("%s: 构造 %s 直方图失败", title, column), err)
		}
		h.Normalize(1)
		h.FillColor = nil
		h.LineStyle.Color = plotutil.Color(i)
		h.LineStyle.Width = vg.Points(1.5)

		p.Add(h)
		p.Legend.Add(column, h)
	}

	return r.save(p, path)
}

// HistogramGrid 2×3 网格，每个主要污染物一张直方图，多余的格子留空
func (r *Renderer) HistogramGrid(path string, obs []processor.Observation, pollutants []string) error {
	const (
		title = "Pollutant histograms"
		rows  = 2
		cols  = 3
	)
	if len(obs) == 0 {
		return apperrors.NewRenderError(title+": 没有观测数据", nil)
	}
	if len(pollutants) > rows*cols {
		return apperrors.NewRenderError(fmt.Sprintf("%s: 最多 %d 个污染物", title, rows*cols), nil)
	}

	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}

	for i := 0; i < rows*cols; i++ {
		p := plot.New()
		plots[i/cols][i%cols] = p
		if i >= len(pollutants) {
			p.HideAxes()
			continue
		}

		column := pollutants[i]
		values, err := measureValues(obs, column)
		if err != nil {
			return err
		}
		if err := checkFinite(title, column, values); err != nil {
			return err
		}

		h, err := plotter.NewHist(plotter.Values(values), r.Cfg.HistogramBins)
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("%s: 构造 %s 直方图失败", title, column), err)
		}
		h.FillColor = plotutil.Color(i)

		p.Title.Text = "Distribution of " + column
		p.X.Label.Text = column
		p.Y.Label.Text = "Count"
		p.Add(h)
	}

	w := vg.Length(r.Cfg.Width) * vg.Inch
	ht := vg.Length(r.Cfg.Height) * vg.Inch
	img := vgimg.New(w, ht)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("无法创建 %s", filepath.Base(path)), err)
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("写入 %s 失败", filepath.Base(path)), err)
	}
	return nil
}

// Scatter 两个字段的散点图，每个城市一种颜色和形状
func (r *Renderer) Scatter(path string, obs []processor.Observation, xColumn, yColumn string) error {
	title := fmt.Sprintf("%s vs %s by city", xColumn, yColumn)
	groups := r.groupByCity(obs)
	if len(groups) == 0 {
		return apperrors.NewRenderError(title+": 没有观测数据", nil)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xColumn
	p.Y.Label.Text = yColumn
	p.Legend.Top = true

	for i, g := range groups {
		xs, err := measureValues(g.obs, xColumn)
		if err != nil {
			return err
		}
		ys, err := measureValues(g.obs, yColumn)
		if err != nil {
			return err
		}
		if err := checkFinite(title, g.name+" "+xColumn, xs); err != nil {
			return err
		}
		if err := checkFinite(title, g.name+" "+yColumn, ys); err != nil {
			return err
		}

		pts := make(plotter.XYs, len(xs))
		for k := range xs {
			pts[k].X = xs[k]
			pts[k].Y = ys[k]
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("%s: 构造 %s 散点失败", title, g.name), err)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		s.GlyphStyle.Radius = vg.Points(3)

		p.Add(s)
		p.Legend.Add(g.name, s)
	}

	return r.save(p, path)
}

// BoxPlot 一个字段按城市的箱线图
func (r *Renderer) BoxPlot(path string, obs []processor.Observation, column string) error {
	title := fmt.Sprintf("%s distribution by city", column)
	groups := r.groupByCity(obs)
	if len(groups) == 0 {
		return apperrors.NewRenderError(title+": 没有观测数据", nil)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "City"
	p.Y.Label.Text = column

	names := make([]string, len(groups))
	for i, g := range groups {
		values, err := measureValues(g.obs, column)
		if err != nil {
			return err
		}
		if err := checkFinite(title, g.name, values); err != nil {
			return err
		}

		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(values))
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("%s: 构造 %s 箱线失败", title, g.name), err)
		}
		box.FillColor = color.RGBA{R: 0x9e, G: 0xc9, B: 0xe2, A: 0xff}

		p.Add(box)
		names[i] = g.name
	}
	p.NominalX(names...)
	rotateX(p)

	return r.save(p, path)
}

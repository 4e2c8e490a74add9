// pipeline.go
package pipeline

import (
	"AirQualityEDA/src/chart"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/datasource/file"
	"AirQualityEDA/src/processor"
	"AirQualityEDA/src/report"
	"AirQualityEDA/src/storage"
	"fmt"
	"io"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Result 一次运行的全部产出
type Result struct {
	Raw          dataframe.DataFrame
	Cleaned      dataframe.DataFrame
	CleanReport  processor.CleanReport
	Stats        []processor.ColumnStats
	Observations []processor.Observation
	Aggregates   *processor.CityAggregates
	Correlation  *processor.CorrelationMatrix
	Artifacts    []chart.Artifact
	ReportPath   string
	Warnings     []string // 运行期间记录的 WARNING 及以上日志
}

// Run 按固定顺序执行：读取 → 校验 → 清洗 → 描述统计 → 城市聚合 → 相关矩阵 → 绘图 → 报表 → 警告汇总
// 任一阶段出错立即返回，不做重试
func Run(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, stdout io.Writer) (*Result, error) {
	start := time.Now()
	printer := report.NewPrinter(stdout)
	res := &Result{}

	warnings := logger.Subscribe(storage.WARNING)
	defer logger.Unsubscribe(warnings)

	keyFunc := processor.ExactCity
	if cfg.NormalizeCity {
		keyFunc = processor.NormalizeCity
	}

	// 1. 读取数据
	log := logger.WithField("stage", "load")
	df, err := file.Load(cfg.InputPath, cfg.SheetName)
	if err != nil {
		return nil, err
	}
	res.Raw = df
	log.Info(fmt.Sprintf("读取 %s: %d 行 %d 列", cfg.InputPath, df.Nrow(), df.Ncol()))
	if err := printer.Preview(df, cfg.PreviewRows); err != nil {
		return nil, err
	}
	if err := printer.Info(df); err != nil {
		return nil, err
	}

	// 2. 校验与清洗
	log = logger.WithField("stage", "clean")
	cleaned, cleanReport, err := processor.NewCleaner(dcfg).Clean(df)
	if err != nil {
		return nil, err
	}
	res.Cleaned, res.CleanReport = cleaned, cleanReport
	for _, imp := range cleanReport.Imputed {
		log.Info(fmt.Sprintf("列 %s 用均值 %.4f 填充 %d 个缺失值", imp.Column, imp.Mean, imp.Filled))
	}
	if cleanReport.Duplicates > 0 {
		log.Warning(fmt.Sprintf("发现 %d 行重复数据(保留)", cleanReport.Duplicates))
	}
	if err := printer.Cleaning(cleanReport); err != nil {
		return nil, err
	}

	obs, err := processor.ToObservations(cleaned, dcfg)
	if err != nil {
		return nil, err
	}
	res.Observations = obs

	// 3. 描述统计
	log = logger.WithField("stage", "describe")
	stats, err := processor.Describe(cleaned, dcfg.NumericColumns())
	if err != nil {
		return nil, err
	}
	res.Stats = stats
	log.Debug(fmt.Sprintf("完成 %d 列描述统计", len(stats)))
	if err := printer.Describe(stats); err != nil {
		return nil, err
	}

	// 4. 城市聚合
	log = logger.WithField("stage", "aggregate")
	agg, err := processor.Aggregate(obs, dcfg.Pollutants, keyFunc)
	if err != nil {
		return nil, err
	}
	res.Aggregates = agg
	log.Info(fmt.Sprintf("%d 行分到 %d 个城市", agg.Total(), len(agg.Cities())))
	if err := printer.Aggregates("Mean pollutant levels by city", agg, processor.StatMean); err != nil {
		return nil, err
	}
	if err := printer.Aggregates("Max pollutant levels by city", agg, processor.StatMax); err != nil {
		return nil, err
	}

	// 5. 相关矩阵
	log = logger.WithField("stage", "correlate")
	corr, err := processor.Correlate(obs, dcfg.NumericColumns())
	if err != nil {
		return nil, err
	}
	res.Correlation = corr
	if corr.HasUndefined() {
		log.Warning("存在方差为 0 的字段，对应相关系数记为 0")
	}
	if err := printer.Correlation(corr); err != nil {
		return nil, err
	}

	// 6. 绘图
	log = logger.WithField("stage", "render")
	renderer := chart.NewRenderer(cfg.OutputDir, cfg.Chart, dcfg, keyFunc)
	artifacts, err := renderer.RenderAll(chart.Input{
		Observations: obs,
		Aggregates:   agg,
		Correlation:  corr,
	})
	res.Artifacts = artifacts
	if err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		log.Debug("已生成 " + a.Path)
	}

	// 7. Excel 报表
	log = logger.WithField("stage", "report")
	res.ReportPath = cfg.ReportPath()
	wb := report.Workbook{Cleaned: cleaned, Stats: stats, Aggregates: agg, Correlation: corr}
	if err := wb.Save(res.ReportPath); err != nil {
		return nil, err
	}
	log.Info("报表已保存到 " + res.ReportPath)
	if err := printer.Artifacts(artifacts, res.ReportPath); err != nil {
		return nil, err
	}

	// 8. 警告汇总
	logger.Unsubscribe(warnings)
	for e := range warnings {
		res.Warnings = append(res.Warnings, e.String())
	}
	if err := printer.Warnings(res.Warnings); err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("数据处理时间：%v", time.Since(start)))
	return res, nil
}

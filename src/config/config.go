package config

import (
	"AirQualityEDA/src/apperrors"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// 列类型
const (
	TypeString = "string"
	TypeDate   = "date"
	TypeFloat  = "float"
)

// Config 应用程序配置，对应 config.json
type Config struct {
	InputPath     string      `mapstructure:"input_path"`     // 数据集路径(.csv 或 .xlsx)
	SheetName     string      `mapstructure:"sheet_name"`     // xlsx 输入时读取的工作表
	OutputDir     string      `mapstructure:"output_dir"`     // 图表和报表输出目录
	ReportName    string      `mapstructure:"report_name"`    // Excel 报表文件名
	LogName       string      `mapstructure:"log_name"`       // 日志文件
	LogLevel      string      `mapstructure:"log_level"`      // 日志级别
	LogMaxSize    string      `mapstructure:"log_max_size"`   // 日志轮转阈值，如 "10 * 1024 * 1024"
	LogStderr     bool        `mapstructure:"log_stderr"`     // 日志是否同时写 stderr
	PreviewRows   int         `mapstructure:"preview_rows"`   // 预览行数
	NormalizeCity bool        `mapstructure:"normalize_city"` // 分组前是否规范化城市名
	Chart         ChartConfig `mapstructure:"chart"`
}

// ChartConfig 图表参数
type ChartConfig struct {
	Width         float64 `mapstructure:"width"`  // 英寸
	Height        float64 `mapstructure:"height"` // 英寸
	HistogramBins int     `mapstructure:"histogram_bins"`
	DensityBins   int     `mapstructure:"density_bins"`
	HTML          bool    `mapstructure:"html"` // 是否输出交互式 HTML
}

// ColumnSpec 数据集中一列的声明
type ColumnSpec struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Required bool   `mapstructure:"required"`
}

// DataConfig 数据集 schema，对应 dataconfig.json
type DataConfig struct {
	Columns           []ColumnSpec `mapstructure:"columns"`
	CityColumn        string       `mapstructure:"city_column"`
	CountryColumn     string       `mapstructure:"country_column"`
	DateColumn        string       `mapstructure:"date_column"`
	DateLayouts       []string     `mapstructure:"date_layouts"`
	Pollutants        []string     `mapstructure:"pollutants"`
	PrimaryPollutants []string     `mapstructure:"primary_pollutants"`
	ScatterX          string       `mapstructure:"scatter_x"`
	ScatterY          string       `mapstructure:"scatter_y"`
	BoxColumn         string       `mapstructure:"box_column"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	loadErr            error
)

// LoadConfig 只加载一次配置，后续调用返回同一实例
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	once.Do(func() {
		instance, dataConfigInstance, loadErr = Load(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, loadErr
}

// Load 读取并解析两个配置文件，文件不存在时使用默认值
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("读取配置文件失败", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("读取数据配置文件失败", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := dcfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, dcfg, nil
}

// readFile 读取文件内容，文件不存在返回 nil
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_path", "data/global_air_quality_data_10000.csv")
	v.SetDefault("sheet_name", "Sheet1")
	v.SetDefault("output_dir", "output")
	v.SetDefault("report_name", "air_quality_report.xlsx")
	v.SetDefault("log_name", "app.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_max_size", "10 * 1024 * 1024")
	v.SetDefault("log_stderr", true)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("normalize_city", false)
	v.SetDefault("chart.width", 10.0)
	v.SetDefault("chart.height", 6.0)
	v.SetDefault("chart.histogram_bins", 10)
	v.SetDefault("chart.density_bins", 30)
	v.SetDefault("chart.html", true)
}

// DefaultConfig 返回全部默认值的配置
func DefaultConfig() *Config {
	cfg, err := decodeConfig(nil)
	if err != nil {
		// 默认值本身不会解析失败
		panic(err)
	}
	return cfg
}

func decodeConfig(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)

	if len(data) > 0 {
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg, err := decodeConfig(data)
	if err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	if len(data) == 0 {
		resultChan <- DefaultDataConfig()
		return
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}

	var dcfg DataConfig
	if err := v.Unmarshal(&dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	dcfg.applyDefaults()
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, apperrors.NewConfigError("部分配置未加载成功", nil)
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return apperrors.NewConfigError("配置加载失败", errs[0])
	}
	return apperrors.NewConfigError("配置加载遇到多个错误", errors.Join(errs...))
}

// Validate 检查应用配置
func (c *Config) Validate() error {
	switch {
	case c.InputPath == "":
		return apperrors.NewConfigError("input_path 不能为空", nil)
	case c.OutputDir == "":
		return apperrors.NewConfigError("output_dir 不能为空", nil)
	case c.PreviewRows < 0:
		return apperrors.NewConfigError("preview_rows 不能为负数", nil)
	case c.Chart.Width <= 0 || c.Chart.Height <= 0:
		return apperrors.NewConfigError("chart 尺寸必须为正数", nil)
	case c.Chart.HistogramBins <= 0 || c.Chart.DensityBins <= 0:
		return apperrors.NewConfigError("直方图分箱数必须为正数", nil)
	}
	return nil
}

// ReportPath 报表输出路径
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportName)
}

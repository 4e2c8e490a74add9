package main

import (
	"AirQualityEDA/src/apperrors"
	"AirQualityEDA/src/config"
	"AirQualityEDA/src/pipeline"
	"AirQualityEDA/src/storage"
	"fmt"
	"io"
	"log"
	"os"
)

func main() {
	os.Exit(run("./config", os.Stdout))
}

// run 执行一次完整分析，返回进程退出码
func run(jsonFolder string, stdout io.Writer) int {
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Println("Failed to load config:", err)
		return 1
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Println("Failed to initialize logger:", err)
		return 1
	}
	defer logger.Close()
	logger.SetLevel(cfg.LogLevel)
	logger.SetStderr(cfg.LogStderr)
	if err := logger.CheckRotate(cfg); err != nil {
		logger.Warning("日志轮转失败: " + err.Error())
	}

	logger.Info(fmt.Sprintf("开始分析 %s", cfg.InputPath))
	if _, err := pipeline.Run(cfg, dcfg, logger, stdout); err != nil {
		logger.WithField("type", string(apperrors.TypeOf(err))).Fatal(err.Error())
		return 1
	}
	logger.Info("分析完成，输出目录: " + cfg.OutputDir)
	return 0
}

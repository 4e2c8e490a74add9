package storage

import (
	"AirQualityEDA/src/config"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel 定义日志级别类型
type LogLevel int

// 日志级别常量定义
const (
	DEBUG   LogLevel = iota // 调试信息
	INFO                    // 普通信息
	WARNING                 // 警告信息
	ERROR                   // 错误信息
	FATAL                   // 致命错误，只记录不退出
)

// Logger 日志记录器，底层使用 logrus，同时写文件和 stderr
type Logger struct {
	filename string
	file     *os.File
	mu       *sync.Mutex
	base     *logrus.Logger
	entry    *logrus.Entry
	hook     *subscriberHook
}

// Entry 推送给订阅者的一条日志
type Entry struct {
	Time    time.Time
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// String 形如 "[WARNING] stage=clean 发现 2 行重复数据"
func (e Entry) String() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k == "severity" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("[" + e.Level.String() + "]")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteString(" " + e.Message)
	return b.String()
}

type subscriber struct {
	min LogLevel
	ch  chan Entry
}

// subscriberHook 把每条日志推送给级别足够的订阅者
type subscriberHook struct {
	mu          sync.Mutex
	subscribers []subscriber
}

func (h *subscriberHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *subscriberHook) Fire(e *logrus.Entry) error {
	entry := Entry{
		Time:    e.Time,
		Level:   fromLogrus(e),
		Message: e.Message,
		Fields:  make(map[string]interface{}, len(e.Data)),
	}
	for k, v := range e.Data {
		entry.Fields[k] = v
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subscribers {
		if entry.Level < s.min {
			continue
		}
		select {
		case s.ch <- entry: // 尝试发送日志条目
		default: // 如果通道已满则跳过
		}
	}
	return nil
}

func fromLogrus(e *logrus.Entry) LogLevel {
	if e.Data["severity"] == FATAL.String() {
		return FATAL
	}
	switch e.Level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return DEBUG
	case logrus.InfoLevel:
		return INFO
	case logrus.WarnLevel:
		return WARNING
	case logrus.ErrorLevel:
		return ERROR
	default:
		return FATAL
	}
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	filename: 日志文件路径
//
// 返回值:
//
//	*Logger: 日志记录器实例
//	error: 创建过程中的错误
func NewLogger(filename string) (*Logger, error) {
	file, err := openLogFile(filename)
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	base.SetLevel(logrus.InfoLevel)
	base.SetOutput(io.MultiWriter(file, os.Stderr))

	hook := &subscriberHook{}
	base.AddHook(hook)

	return &Logger{
		filename: filename,
		file:     file,
		mu:       &sync.Mutex{},
		base:     base,
		entry:    logrus.NewEntry(base),
		hook:     hook,
	}, nil
}

func openLogFile(filename string) (*os.File, error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// SetLevel 按名称设置级别，无法识别时保持 info
func (l *Logger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.base.SetLevel(lvl)
}

// SetStderr 控制是否同时输出到 stderr，对应配置 log_stderr
func (l *Logger) SetStderr(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setOutput(enabled)
}

func (l *Logger) setOutput(stderr bool) {
	if stderr {
		l.base.SetOutput(io.MultiWriter(l.file, os.Stderr))
		return
	}
	l.base.SetOutput(l.file)
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// reopen 关闭当前文件并打开 filename，调用方持有 l.mu
func (l *Logger) reopen(filename string) error {
	stderr := l.writesStderr()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	file, err := openLogFile(filename)
	if err != nil {
		return err
	}
	l.file = file
	l.filename = filename
	l.setOutput(stderr)
	return nil
}

func (l *Logger) writesStderr() bool {
	_, isFile := l.base.Out.(*os.File)
	return !isFile
}

// WithField 返回附带字段的日志记录器，共享同一输出
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		filename: l.filename,
		file:     l.file,
		mu:       l.mu,
		base:     l.base,
		entry:    l.entry.WithField(key, value),
		hook:     l.hook,
	}
}

// Log 记录日志方法
// 参数:
//
//	level: 日志级别
//	message: 日志消息内容
func (l *Logger) Log(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch level {
	case DEBUG:
		l.entry.Debug(message)
	case INFO:
		l.entry.Info(message)
	case WARNING:
		l.entry.Warn(message)
	case ERROR:
		l.entry.Error(message)
	case FATAL:
		// logrus 的 Fatal 会直接退出进程，这里只按 error 记录
		l.entry.WithField("severity", FATAL.String()).Error(message)
	default:
		l.entry.Info(message)
	}
}

// CheckRotate 日志文件超过 log_max_size 时轮转
func (l *Logger) CheckRotate(cfg *config.Config) error {
	l.mu.Lock()
	file := l.file
	l.mu.Unlock()
	if file == nil {
		return nil
	}

	info, err := file.Stat()
	if err != nil {
		return err
	}

	limit, err := eval(cfg.LogMaxSize)
	if err != nil {
		return err
	}
	if limit > 0 && info.Size() > limit {
		return l.rotateLog()
	}
	return nil
}

// rotateLog 把当前文件改名为 name.时间戳.ext 后重新打开原文件名
// 改名失败时仍重新打开原文件继续写入，并返回改名错误
func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
	}

	ext := filepath.Ext(l.filename)
	rotated := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(l.filename, ext), time.Now().Format("20060102150405"), ext)
	renameErr := os.Rename(l.filename, rotated)
	if err := l.reopen(l.filename); err != nil {
		return err
	}
	return renameErr
}

// Subscribe 订阅级别不低于 min 的日志
// 返回值:
//
//	<-chan Entry: 只读通道(容量100)，通道满时新日志被丢弃
func (l *Logger) Subscribe(min LogLevel) <-chan Entry {
	l.hook.mu.Lock()
	defer l.hook.mu.Unlock()

	ch := make(chan Entry, 100)
	l.hook.subscribers = append(l.hook.subscribers, subscriber{min: min, ch: ch})
	return ch
}

// Unsubscribe 取消订阅，通道中尚未读取的日志仍可读出
func (l *Logger) Unsubscribe(ch <-chan Entry) {
	l.hook.mu.Lock()
	defer l.hook.mu.Unlock()

	for i, s := range l.hook.subscribers {
		if s.ch == ch {
			l.hook.subscribers = append(l.hook.subscribers[:i], l.hook.subscribers[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// String 实现LogLevel的String方法
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// eval 计算形如 "10 * 1024 * 1024" 的乘积表达式
func eval(expr string) (int64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, nil
	}
	var result int64 = 1
	for _, part := range strings.Split(expr, "*") {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid log_max_size %q: %w", expr, err)
		}
		result *= num
	}
	return result, nil
}

// 以下是快捷日志方法
func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }   // 记录调试信息
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }    // 记录普通信息
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) } // 记录警告信息
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }   // 记录错误信息
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }   // 记录致命错误

package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"QuickBill305/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// L returns the process logger. Before the logger service starts it is a
// no-op logger.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func setGlobal(l *zap.Logger) {
	global.Store(l)
}

type LoggerService struct {
	Config        map[string]interface{}
	out           *rotatingFile
	zl            *zap.Logger
	level         zapcore.Level
	console       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	retentionDays int
	folderPath    string
}

func NewLoggerService(cfg map[string]interface{}) *LoggerService {
	folder := config.String(cfg, "folder_path", "./logs")
	level, err := zapcore.ParseLevel(config.String(cfg, "level", "info"))
	if err != nil {
		level = zapcore.InfoLevel
	}
	console := config.Bool(cfg, "console", false)
	return &LoggerService{
		Config:        cfg,
		out:           &rotatingFile{dir: folder, maxBytes: int64(config.Int(cfg, "max_file_mb", 0)) << 20},
		level:         level,
		console:       console,
		stopCh:        make(chan struct{}),
		retentionDays: config.Int(cfg, "retention_days", 0),
		folderPath:    folder,
	}
}

func (l *LoggerService) Name() string {
	return "Logger"
}

func (l *LoggerService) Start() error {
	if err := os.MkdirAll(l.folderPath, 0o755); err != nil {
		return err
	}
	if err := l.out.open(); err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), l.out, l.level)}
	if l.console {
		conCfg := encCfg
		conCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(conCfg), zapcore.Lock(os.Stderr), l.level))
	}
	l.zl = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	setGlobal(l.zl)
	l.zl.Info("logger started", zap.String("file", l.out.currentName()))

	l.wg.Add(1)
	go l.backgroundWorker()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	if l.zl != nil {
		l.zl.Info("logger stopping")
		_ = l.zl.Sync()
	}
	setGlobal(nil)
	return l.out.Close()
}

func (l *LoggerService) backgroundWorker() {
	defer l.wg.Done()
	retentionTicker := time.NewTicker(24 * time.Hour)
	defer retentionTicker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-retentionTicker.C:
			l.zipAndCleanOldLogs(time.Now())
		}
	}
}

// zipAndCleanOldLogs moves .log files older than the retention window into a
// dated zip archive. The file being written is never touched.
func (l *LoggerService) zipAndCleanOldLogs(now time.Time) {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -l.retentionDays)
	files, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}
	current := filepath.Base(l.out.currentName())

	var old []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".log" || f.Name() == current {
			continue
		}
		info, err := f.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		old = append(old, f.Name())
	}
	if len(old) == 0 {
		return
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", now.Format("20060102_150405")))
	zipFile, err := os.Create(zipName)
	if err != nil {
		L().Error("log archive not created", zap.String("zip", zipName), zap.Error(err))
		return
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	for _, name := range old {
		fullPath := filepath.Join(l.folderPath, name)
		w, err := zipWriter.Create(name)
		if err != nil {
			continue
		}
		src, err := os.Open(fullPath)
		if err != nil {
			continue
		}
		_, copyErr := io.Copy(w, src)
		src.Close()
		if copyErr == nil {
			os.Remove(fullPath)
		}
	}
}

// LogAudit writes a security-relevant event to the audit channel.
func (l *LoggerService) LogAudit(msg string, fields ...zap.Field) {
	if l == nil || l.zl == nil {
		L().Named("audit").Info(msg, fields...)
		return
	}
	l.zl.Named("audit").Info(msg, fields...)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// rotatingFile is a zapcore.WriteSyncer that starts a new file once the
// current one would grow past maxBytes.
type rotatingFile struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	file     *os.File
	size     int64
	current  string
	seq      int
}

func (r *rotatingFile) open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openLocked()
}

func (r *rotatingFile) openLocked() error {
	r.seq++
	name := filepath.Join(r.dir, fmt.Sprintf("app_%s_%03d.log", time.Now().Format("20060102_150405"), r.seq))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.file, r.current, r.size = f, name, info.Size()
	return nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return 0, os.ErrClosed
	}
	if r.maxBytes > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		r.file.Close()
		if err := r.openLocked(); err != nil {
			r.file = nil
			return 0, err
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *rotatingFile) currentName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

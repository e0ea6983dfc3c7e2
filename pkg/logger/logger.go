package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// InitLogger 初始化 zap 日志记录器，production 模式下收敛到 Info 级别
func InitLogger(mode string) {
	level := zapcore.DebugLevel
	if mode == "production" {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(getEncoder(), getLogWriter(), level)

	Logger = zap.New(core, zap.AddCaller())
	Sugar = Logger.Sugar()

	// 将全局的 zap logger 替换为我们配置好的 logger
	zap.ReplaceGlobals(Logger)
}

// getEncoder 设置日志编码格式
func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// getLogWriter 指定日志写入位置 (文件和控制台)
func getLogWriter() zapcore.WriteSyncer {
	// 使用 lumberjack 实现日志切割和归档
	lumberJackLogger := &lumberjack.Logger{
		Filename:   "./logs/burnlink.log",
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // 天
		Compress:   false,
	}
	return zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(lumberJackLogger))
}

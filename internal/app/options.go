package app

import (
	"os"
	"time"

	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"

	"go.uber.org/zap"
)

// 运行模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// Options 启动选项，Mode 决定同进程内启动哪些服务
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultStopTimeout
	}
	switch opts.Mode {
	case ModeAll, ModeAPI, ModeWorker:
	default:
		opts.Mode = ModeAll
	}
	return opts
}

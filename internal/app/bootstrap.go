package app

import (
	"errors"
	"fmt"

	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/provider"
	"github.com/campusdash/internal/router"
	"github.com/campusdash/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	// Worker：群发批次与支付对账
	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled && mode == ModeAll {
			logger.Warnw("app_worker_skipped_queue_disabled")
		} else {
			workerService, err := worker.NewService(cfg, worker.NewConsumer(container))
			if err != nil {
				container.Close()
				return nil, nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

// PrepareDatabase 连接数据库并迁移表结构，server 与 seed 共用
func PrepareDatabase(cfg *config.Config, debug bool) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	pool := cfg.Database.Pool
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, debug, models.DBPoolConfig{
		MaxOpenConns:           pool.MaxOpenConns,
		MaxIdleConns:           pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

package app

import (
	"errors"

	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/provider"
	"github.com/digibuy-next/internal/router"
	"github.com/digibuy-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务（按通知投递方式选择消费端）
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		switch cfg.Notify.Driver {
		case constants.NotifyDriverAsynq:
			if cfg.Queue.Enabled {
				workerService, err := worker.NewService(&cfg.Queue, consumer)
				if err != nil {
					return nil, err
				}
				services = append(services, workerService)
			}
		case constants.NotifyDriverRabbitMQ:
			rabbitService, err := worker.NewRabbitService(&cfg.Notify.RabbitMQ, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, rabbitService)
		default:
			logger.Infow("app_worker_skipped", "notify_driver", cfg.Notify.Driver)
		}
	}

	// 如果没有服务被启动（例如模式错误或配置导致都没起），应该报错或至少打日志
	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

package provider

import (
	"io"
	"time"

	"github.com/digibuy-next/internal/authz"
	"github.com/digibuy-next/internal/cache"
	"github.com/digibuy-next/internal/config"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/payment/card"
	"github.com/digibuy-next/internal/queue"
	"github.com/digibuy-next/internal/repository"
	"github.com/digibuy-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config   *config.Config
	Notifier service.NotificationSink

	// Repositories
	AdminRepo              repository.AdminRepository
	UserRepo               repository.UserRepository
	OrderRepo              repository.OrderRepository
	ProductRepo            repository.ProductRepository
	CouponRepo             repository.CouponRepository
	PaymentRepo            repository.PaymentRepository
	BalanceTransactionRepo repository.BalanceTransactionRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	EmailService       *service.EmailService
	OrderService       *service.OrderService
	CouponAdminService *service.CouponAdminService
	CheckoutService    *service.CheckoutService
	AccountService     *service.AccountService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{
		Config:   cfg,
		Notifier: newNotifier(cfg),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// newNotifier 按 notify.driver 选择结算通知投递方式，未启用时返回 nil
func newNotifier(cfg *config.Config) service.NotificationSink {
	switch cfg.Notify.Driver {
	case constants.NotifyDriverRabbitMQ:
		return queue.NewRabbitPublisher(&cfg.Notify.RabbitMQ)
	case constants.NotifyDriverAsynq:
		if !cfg.Queue.Enabled {
			logger.Warnw("provider_notify_queue_disabled", "driver", cfg.Notify.Driver)
			return nil
		}
		client, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
			return nil
		}
		return client
	default:
		return nil
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.BalanceTransactionRepo = repository.NewBalanceTransactionRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.AccountService = service.NewAccountService(c.OrderRepo, c.ProductRepo, c.PaymentRepo, c.BalanceTransactionRepo)

	chargeLimit, err := card.ParseChargeLimit(c.Config.Checkout.CardChargeLimit)
	if err != nil {
		logger.Warnw("provider_parse_card_charge_limit_failed", "value", c.Config.Checkout.CardChargeLimit, "error", err)
	}
	authorizer := card.NewAuthorizer(card.Config{ChargeLimit: chargeLimit})

	var locker service.SettlementLocker
	if cache.Enabled() {
		locker = cache.NewSettlementLocker()
	}

	c.CheckoutService = service.NewCheckoutService(
		models.DB,
		c.OrderRepo,
		c.UserRepo,
		c.CouponRepo,
		c.ProductRepo,
		c.PaymentRepo,
		c.BalanceTransactionRepo,
		authorizer,
		c.Notifier,
		locker,
		service.CheckoutOptions{
			PointsAllocation: c.Config.Checkout.PointsAllocation,
			LockTTL:          time.Duration(c.Config.Checkout.LockTTLSeconds) * time.Second,
		},
	)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() error {
	if closer, ok := c.Notifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warnw("provider_close_notifier_failed", "error", err)
		}
	}
	return cache.Close()
}

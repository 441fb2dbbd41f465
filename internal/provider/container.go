package provider

import (
	"github.com/assem2023-habib/shehrezad/internal/authz"
	"github.com/assem2023-habib/shehrezad/internal/cache"
	"github.com/assem2023-habib/shehrezad/internal/config"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/queue"
	"github.com/assem2023-habib/shehrezad/internal/repository"
	"github.com/assem2023-habib/shehrezad/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	CartRepo         repository.CartRepository
	CouponRepo       repository.CouponRepository
	DebtRepo         repository.DebtRepository
	OrderRepo        repository.OrderRepository
	SettingRepo      repository.SettingRepository
	SequenceRepo     repository.SequenceRepository
	NotificationRepo repository.NotificationRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	SettingService      *service.SettingService
	CouponService       *service.CouponService
	CartService         *service.CartService
	DebtService         *service.DebtService
	CheckoutService     *service.CheckoutService
	NotificationService *service.NotificationService
	SweepService        *service.SweepService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.DebtRepo = repository.NewDebtRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.SequenceRepo = repository.NewSequenceRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
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

	c.SettingService = service.NewSettingService(c.SettingRepo, &c.Config.Cart)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CartRepo, c.SettingService)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.CouponRepo, c.UserRepo, c.SequenceRepo, c.SettingService, c.CouponService)
	c.DebtService = service.NewDebtService(c.DebtRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartRepo, c.OrderRepo, c.CouponRepo, c.DebtService, c.CouponService, c.SettingService, c.NotificationService)
	c.SweepService = service.NewSweepService(c.CartRepo, c.ProductRepo, c.UserRepo, c.SettingService, c.NotificationService, c.QueueClient)
}

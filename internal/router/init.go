package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketplace/internal/controllers"
	"marketplace/internal/controllers/offering"
	"marketplace/internal/controllers/order"
	"marketplace/internal/controllers/resource"
	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/limit"
	"marketplace/pkg/logger"
	"marketplace/pkg/middlewares"
	"marketplace/pkg/validator"
)

type Options struct {
	ServiceName string
	Logger      *zap.Logger
	// RateLimiter builds the bucket of one caller; nil disables rate limiting.
	RateLimiter func(key string) limit.RateLimiter
	Registry    *prometheus.Registry
	Origins     []string
	// ReadyChecks gate GET /ready.
	ReadyChecks []func() bool
}

// New builds the gin engine serving srv.
func New(srv service.Service, opts *Options) (*gin.Engine, error) {
	v, err := validator.New()
	if err != nil {
		return nil, err
	}
	binding.Validator = v
	router := gin.New()

	httpMetrics, err := middlewares.NewHTTPMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}
	router.Use(
		middlewares.SetLogger(opts.Logger),
		middlewares.Recovery,
		middlewares.Log,
		middlewares.CrossDomain(opts.Origins...),
		middlewares.Tracing(opts.ServiceName),
		httpMetrics.Handler,
	)
	router.GET("/health", controllers.Health)
	router.GET("/ready", controllers.Ready(opts.ReadyChecks...))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	v1Router := router.Group("/v1")
	logger.RegisterLog(v1Router.Group("/debug"))

	// provider callbacks authenticate with the offering secret instead of a user
	registerCallbacks(v1Router, srv)

	userRouter := v1Router.Group("", middleware.CheckHeaders)
	if opts.RateLimiter != nil {
		userRouter.Use(middlewares.RateLimit(opts.RateLimiter))
	}
	registerOrders(userRouter, srv)
	registerResources(userRouter, srv)
	userRouter.GET("/offering-types", offering.Types(srv))
	return router, nil
}

func registerOrders(router gin.IRouter, srv service.Service) {
	orderController := order.NewOrderController(srv)
	orderGroup := router.Group("/orders")
	{
		orderGroup.POST("", orderController.Submit)
		orderGroup.GET("", orderController.List)
		orderGroup.GET("/:id", orderController.Get)
		orderGroup.POST("/:id/approve_by_consumer", orderController.ApproveByConsumer)
		orderGroup.POST("/:id/approve_by_provider", orderController.ApproveByProvider)
		orderGroup.POST("/:id/reject", orderController.Reject)
		orderGroup.POST("/:id/cancel", orderController.Cancel)
	}
}

func registerResources(router gin.IRouter, srv service.Service) {
	resourceController := resource.NewResourceController(srv)
	resourceGroup := router.Group("/resources")
	{
		resourceGroup.GET("", resourceController.List)
		resourceGroup.GET("/:id", resourceController.Get)
		resourceGroup.GET("/:id/plan_periods", resourceController.PlanPeriods)
		resourceGroup.POST("/:id/pull", resourceController.Pull)
	}
	router.GET("/projects/:id/usage", resourceController.Usage)
}

func registerCallbacks(router gin.IRouter, srv service.Service) {
	router.POST("/orders/:id/set_state", order.NewOrderController(srv).SetState)
	router.POST("/resources/:id/sync_state", resource.NewResourceController(srv).SyncState)
}

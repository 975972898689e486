package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"marketplace/config"
	"marketplace/internal/code"
	"marketplace/internal/consumer"
	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/router"
	"marketplace/internal/service"
	"marketplace/internal/service/order"
	"marketplace/internal/service/pull"
	"marketplace/internal/service/sweep"
	"marketplace/internal/store"
	"marketplace/pkg/async"
	"marketplace/pkg/clock"
	"marketplace/pkg/job"
	"marketplace/pkg/limit"
	"marketplace/pkg/logger"
	metric "marketplace/pkg/prometheus"
	redisx "marketplace/pkg/redis"
	"marketplace/pkg/routine"
	"marketplace/pkg/syncx"
	"marketplace/pkg/tracex"
	"marketplace/pkg/validator"
)

var configFile = flag.String("f", "./config/marketplace.yml", "the config file")

func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if err = code.Loading(); err != nil {
		log.Fatal(err)
	}
	if cfg.Service.Mode != "" {
		gin.SetMode(cfg.Service.Mode)
	}
	if err = run(cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	logOpts := []logger.Option{
		logger.WithServerName(cfg.Service.Name),
		logger.WithLevel(cfg.Log.Level),
		logger.WithWriter(logger.SetWriter(cfg.Log.Console, cfg.Log.Path)),
	}
	if cfg.Log.JSON {
		logOpts = append(logOpts, logger.WithJSON())
	}
	l := logger.New(logOpts...)
	ctx := logger.With(context.Background(), l)
	defer func() {
		_ = l.Sync()
		_ = logger.CloseWriter()
	}()
	if _, err := maxprocs.Set(maxprocs.Logger(l.Sugar().Infof)); err != nil {
		l.Warn("set GOMAXPROCS", zap.Error(err))
	}
	if cfg.Tracing.Enabled {
		tp := tracex.New(l, tracex.WithServiceName(cfg.Service.Name), tracex.WithSampleRatio(cfg.Tracing.SampleRatio))
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	f, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	if err = seedCatalog(ctx, f, reg, cfg.Catalog); err != nil {
		return err
	}

	bus := hook.NewBus(l, hook.WithBuffer(cfg.Hook.Buffer), hook.WithMaxRetries(cfg.Hook.MaxRetries))
	defer bus.Close()
	for _, listener := range []hook.Listener{
		&hook.UsageListener{Store: f},
		hook.MetricsListener{},
		hook.LogListener{Log: l},
	} {
		if err = bus.AddListener(listener); err != nil {
			return err
		}
	}

	var (
		locker      = syncx.NewStdKeyedLocker()
		rateLimiter = func(string) limit.RateLimiter {
			return limit.NewStdRateLimiter(cfg.RateLimit.QPS, cfg.RateLimit.Burst, clock.RealClock{})
		}
		checks  = map[string]func() bool{}
		checker *redisx.Checker
	)
	if cfg.Redis.Enabled() {
		client, err := redisx.New(ctx,
			redisx.WithAddrs(cfg.Redis.Addrs...),
			redisx.WithPassword(cfg.Redis.Password),
			redisx.WithDB(cfg.Redis.DB))
		if err != nil {
			return err
		}
		defer client.Close()
		locker = syncx.NewRedisKeyedLocker(client, cfg.Service.Name+":lock:", cfg.Lock.TTL, cfg.Lock.Wait)
		rateLimiter = func(key string) limit.RateLimiter {
			return limit.NewRedisRateLimiter(client, cfg.RateLimit.QPS, cfg.RateLimit.Burst,
				cfg.Service.Name+":"+key, clock.RealClock{})
		}
		checker = redisx.NewChecker(client, 3)
		checks["redis"] = checker.Active
	}
	if cfg.RateLimit.QPS <= 0 {
		rateLimiter = nil
	}

	srv := service.NewService(f, reg, bus,
		service.WithOrderOptions(order.WithAutoApprove(cfg.Order.AutoApprove), order.WithLocker(locker)))

	promRegistry := prometheus.NewRegistry()
	if err = metrics.Register(promRegistry); err != nil {
		return err
	}
	if err = metric.Register(promRegistry, cfg.Service.Name, checks); err != nil {
		return err
	}
	readyChecks := make([]func() bool, 0, len(checks))
	for _, check := range checks {
		readyChecks = append(readyChecks, check)
	}
	engine, err := router.New(srv, &router.Options{
		ServiceName: cfg.Service.Name,
		Logger:      l,
		RateLimiter: rateLimiter,
		Registry:    promRegistry,
		Origins:     cfg.Service.Origins,
		ReadyChecks: readyChecks,
	})
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:    cfg.Service.Addr,
		Handler: engine,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	metric.RegisterHttpConnCountMetric(httpSrv)

	g := routine.NewGroup(ctx)
	g.Go(func(ctx context.Context) error {
		logger.From(ctx).Sugar().Infof("%s run on %s, listen on %s", cfg.Service.Name, gin.Mode(), httpSrv.Addr)
		return httpSrv.ListenAndServe()
	})
	g.Go(func(ctx context.Context) error {
		return shutdownAction(ctx, httpSrv)
	})
	g.Go(func(ctx context.Context) error {
		return scheduleAction(ctx, cfg, srv, f)
	})
	if cfg.AMQP.Enabled() {
		g.Go(func(ctx context.Context) error {
			return consumeAction(ctx, cfg.AMQP, srv)
		})
	}
	if checker != nil {
		g.Go(func(ctx context.Context) error {
			return checker.Run(ctx, cfg.Redis.CheckInterval)
		})
	}

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.From(ctx).Error("server run with error", zap.Error(err))
		return err
	}
	return nil
}

const DefaultStopTime = 15 * time.Second

func shutdownAction(ctx context.Context, srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-quit:
	}
	newCtx, cancel := context.WithTimeout(context.Background(), DefaultStopTime)
	defer cancel()
	logger.From(ctx).Info("shutting down server...")
	return multierr.Append(err, srv.Shutdown(newCtx))
}

// scheduleAction runs the stuck-resource sweep and the backend pull on the time wheel.
func scheduleAction(ctx context.Context, cfg *config.Config, srv service.Service, f store.Factory) error {
	wheel := job.NewTimeWheel(job.WithInterval(time.Second))
	if cfg.Sweep.Enabled {
		sweeper := sweep.New(f, srv.Callbacks(), cfg.Sweep.Timeout)
		if err := wheel.ScheduleJob(ctx, job.Singleton(sweeper.Job()), job.Every(cfg.Sweep.Interval)); err != nil {
			return err
		}
	}
	if cfg.Pull.Enabled {
		pullJob := pull.NewJob(srv.Pull(), srv.Registry(), f)
		if err := wheel.ScheduleJob(ctx, job.Singleton(pullJob), job.Every(cfg.Pull.Interval)); err != nil {
			return err
		}
	}
	return wheel.Start(ctx)
}

// consumeAction feeds backend state reports from the queue into the callback service.
func consumeAction(ctx context.Context, cfg config.AMQP, srv service.Service) error {
	ch, err := async.NewRabbitmqChannel(
		async.WithURI(cfg.URL),
		async.WithQos(async.QosOption{PrefetchCount: cfg.Prefetch}),
	)
	if err != nil {
		return err
	}
	defer ch.Close()
	if err = ch.DeclareAndBind(cfg.Exchange, "direct", cfg.Queue, cfg.Key); err != nil {
		return err
	}
	v, err := validator.New()
	if err != nil {
		return err
	}
	c, err := async.NewTaskConsumer(
		async.WithValidator(v),
		async.WithWorkers(cfg.Workers),
		async.WithLogger(logger.From(ctx)),
	)
	if err != nil {
		return err
	}
	c.Register(consumer.Handlers(srv.Callbacks(), v)...)
	logger.From(ctx).Info("consuming backend reports", zap.String("queue", cfg.Queue))
	return c.Subscribe(ctx, ch, cfg.Queue)
}

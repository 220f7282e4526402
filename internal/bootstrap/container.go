package bootstrap

import (
	"context"
	"fmt"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/controller"
	"assembly-dashboard-be/internal/handler"
	"assembly-dashboard-be/internal/metrics"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/repository/memory"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/internal/websocket"
	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/datasource"
	pktNats "assembly-dashboard-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// EventTopic is the in-process topic every dashboard event goes through.
const EventTopic = "dashboard.events"

const dispatchBuffer = 64

type Container struct {
	// Controllers
	DashboardController controller.IDashboardController
	RecapController     controller.IRecapController
	TrendController     controller.ITrendController
	LawController       controller.ILawController
	QuestionController  controller.IQuestionController
	SpeechController    controller.ISpeechController
	NewsController      controller.INewsController

	// WebSockets
	DashboardHandler *handler.DashboardHandler
	WebSocketHub     *websocket.Hub

	// Background workers (started by Start)
	Dispatcher      *engine.Dispatcher
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the application. Optional infrastructure (Redis, NATS) degrades to a
// warning when unreachable.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Data
	source, err := NewSource(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	if cached, ok := source.(*datasource.CachedSource); ok {
		c.closers = append(c.closers, cached.Flush)
	}
	services, err := NewServices(source, cfg, sysLogger)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	wsLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	c.WebSocketHub = websocket.NewHub(newRedis(cfg.App.RedisURL, sysLogger), wsLogger)

	// 4. Dashboard engine
	sessions := memory.NewSessionRepository(cfg.Dashboard.SessionTTL, func(id string) {
		metrics.SessionClosed()
		sysLogger.Debug("Bootstrap", "Dashboard session evicted", map[string]interface{}{"session_id": id})
	})
	machine := selection.NewMachine(services.Resolver)
	c.Dispatcher = engine.NewDispatcher(engine.New(machine), sessions, dispatchBuffer)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, EventTopic)
	c.ConsumerService = service.NewConsumerService(pubSub, EventTopic, c.WebSocketHub, forwarder, sysLogger)
	dashboardService := service.NewDashboardService(
		sessions,
		c.Dispatcher,
		machine,
		services.Recap,
		publisherService,
		cfg.Dashboard.PageSize,
		sysLogger,
	)

	// 6. Controllers
	c.DashboardController = controller.NewDashboardController(dashboardService, services.Trend)
	c.RecapController = controller.NewRecapController(services.Recap)
	c.TrendController = controller.NewTrendController(services.Trend)
	c.LawController = controller.NewLawController(services.Law)
	c.QuestionController = controller.NewQuestionController(services.Question)
	c.SpeechController = controller.NewSpeechController(services.Speech)
	c.NewsController = controller.NewNewsController(services.News)
	c.DashboardHandler = handler.NewDashboardHandler(dashboardService, c.WebSocketHub, wsLogger)

	return c, nil
}

// newRedis connects the hub's cross-instance channel. Without Redis the hub serves this
// instance only.
func newRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis; websocket fan-out is local only", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.Dispatcher.Run(ctx)
	go c.WebSocketHub.Run(ctx)
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	return nil
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

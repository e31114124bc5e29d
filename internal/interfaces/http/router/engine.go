package router

import (
	_ "github.com/erp/consignment/docs"
	"github.com/erp/consignment/internal/infrastructure/config"
	"github.com/erp/consignment/internal/infrastructure/logger"
	"github.com/erp/consignment/internal/infrastructure/telemetry"
	"github.com/erp/consignment/internal/interfaces/http/handler"
	"github.com/erp/consignment/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Consignment *handler.ConsignmentHandler
	Product     *handler.ProductHandler
	System      *handler.SystemHandler
}

type engineOptions struct {
	meterProvider *telemetry.MeterProvider
}

// Option customizes NewEngine
type Option func(*engineOptions)

// WithMeterProvider records HTTP request metrics for /api/v1 on mp
func WithMeterProvider(mp *telemetry.MeterProvider) Option {
	return func(o *engineOptions) {
		o.meterProvider = mp
	}
}

// NewEngine builds the gin engine with the middleware stack in order:
// request ID, tracing, recovery, request logging, security headers, CORS
// and body limit. Routes live under /api/v1 with /health and, when enabled,
// /swagger at the root; request metrics and profiling labels cover the
// /api/v1 group only.
func NewEngine(cfg *config.Config, log *zap.Logger, handlers Handlers, opts ...Option) *gin.Engine {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if handlers.System != nil {
		engine.GET("/health", handlers.System.Health)
	}
	if cfg.HTTP.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var resources []resource
	if handlers.Consignment != nil {
		resources = append(resources, consignmentResource(handlers.Consignment))
	}
	if handlers.Product != nil {
		resources = append(resources, productResource(handlers.Product))
	}
	apiMiddleware := []gin.HandlerFunc{
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: o.meterProvider,
			Enabled:       cfg.Telemetry.MetricsEnabled,
		}),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
	}
	mountAPI(engine, apiMiddleware, resources...)

	return engine
}

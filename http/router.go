package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

type RouterConfig struct {
	ServiceName   string
	AllowedOrigin string
}

func SetupRouter(
	cfg RouterConfig,
	mortgageHandler *MortgageHandler,
	termComparisonHandler *TermComparisonHandler,
	limiter *RateLimiter,
) *gin.Engine {

	r := gin.New()
	meter := otel.Meter(cfg.ServiceName)
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(NewMetricMiddleware(meter))
	r.Use(RequestID())
	r.Use(AccessLog())
	r.Use(CORS(cfg.AllowedOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	mortgage := r.Group("/mortgage")
	if limiter != nil {
		mortgage.Use(RateLimitMiddleware(limiter))
	}
	mortgage.GET("/calculate", mortgageHandler.Calculate)
	mortgage.GET("/amortization-schedule", mortgageHandler.AmortizationSchedule)
	mortgage.GET("/compare-terms", termComparisonHandler.CompareTerms)

	return r
}

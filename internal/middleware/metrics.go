package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	metricsMu sync.Mutex
	collector = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics returns the HTTP metrics collector for serviceName. Collectors
// live on the default registry, so each name is built only once per process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if prom, ok := collector[serviceName]; ok {
		return prom
	}
	prom := fiberprometheus.New(serviceName)
	collector[serviceName] = prom
	return prom
}

// MetricsMiddleware records every request on prom.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

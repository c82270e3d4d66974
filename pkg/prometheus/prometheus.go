package prometheus

import (
	"net/http"

	"github.com/immersionlab/backend/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler exposes the runtime metrics and every metric of the service,
// labelled with the service name.
func NewHandler(service string) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
	for _, counter := range common.PromCounters {
		registerer.MustRegister(counter)
	}

	for _, histogram := range common.PromHistograms {
		registerer.MustRegister(histogram)
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

package server

import (
	"net/http"

	"staffeval/internal/platform/metrics"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
)

func writeMetrics(w http.ResponseWriter, r *http.Request, collector *metrics.Collector) {
	api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
}

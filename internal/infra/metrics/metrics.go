package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metadata_cache_hits_total",
		Help: "Попадания в кэш метаданных",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metadata_cache_misses_total",
		Help: "Промахи кэша метаданных (включая просроченные записи)",
	})
	CacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metadata_cache_evictions_total",
		Help: "Вытеснения из кэша метаданных по достижении лимита",
	})

	SubmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_submissions_total",
		Help: "Количество созданных заявок",
	})
	ModerationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_moderation_actions_total",
		Help: "Действия модераторов по типу и результату",
	}, []string{"action", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CacheHits,
		CacheMisses,
		CacheEvictions,
		SubmissionsTotal,
		ModerationActions,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveModeration записывает результат действия модератора.
func ObserveModeration(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ModerationActions.WithLabelValues(action, status).Inc()
}

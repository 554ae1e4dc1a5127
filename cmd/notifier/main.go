package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-channel-catalog/internal/adapters/notify"
	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/config"
	applog "tg-channel-catalog/internal/infra/log"
	"tg-channel-catalog/internal/infra/metrics"
	"tg-channel-catalog/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "notifier")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.Token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: не удалось создать бота")
	}

	var events domain.ModerationQueue
	if cfg.Queues.RabbitURL != "" {
		events, err = queue.NewRabbitModerationQueue(cfg.Queues.RabbitURL, cfg.Queues.RabbitMgmtURL, cfg.Queues.Moderation)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: не удалось создать очередь RabbitMQ")
		}
	} else {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		events = queue.NewRedisModerationQueue(redisClient, cfg.Queues.Moderation)
	}

	notifier := notify.NewNotifier(botAPI, logger.With().Str("component", "notify").Logger())

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":"+strconv.Itoa(cfg.MetricsPort))

	logger.Info().Msg("notifier: старт")
	for {
		event, err := events.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			// повторной доставки нет, решение уже применено к заявке
			logger.Error().Err(err).Str("event_id", event.ID).Msg("notifier: не удалось уведомить автора")
		}
	}
	logger.Info().Msg("notifier: остановка")
}

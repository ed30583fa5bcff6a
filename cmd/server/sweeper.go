package main

import (
	"context"
	"time"

	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/service"
)

// startQuoteSweeper периодически переводит просроченные сметы в expired.
// Первый проход выполняется сразу при старте.
func startQuoteSweeper(ctx context.Context, quotes *service.QuoteService, interval time.Duration) {
	logger.Log.WithField("interval", interval.String()).Info("Запущена фоновая проверка просроченных смет")

	runQuoteSweep(ctx, quotes)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Фоновая проверка просроченных смет остановлена")
			return
		case <-ticker.C:
			runQuoteSweep(ctx, quotes)
		}
	}
}

func runQuoteSweep(ctx context.Context, quotes *service.QuoteService) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	count, err := quotes.ExpireQuotes(sweepCtx, time.Now().UTC())
	if err != nil {
		logger.Log.WithError(err).Error("Ошибка проверки просроченных смет")
		return
	}
	if count > 0 {
		logger.Log.WithField("count", count).Info("Просроченные сметы переведены в expired")
	}
}

// startReminderSweeper периодически рассылает напоминания о встречах.
func startReminderSweeper(ctx context.Context, appointments *service.AppointmentService, interval time.Duration) {
	logger.Log.WithField("interval", interval.String()).Info("Запущена фоновая рассылка напоминаний")

	runReminderSweep(ctx, appointments)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Фоновая рассылка напоминаний остановлена")
			return
		case <-ticker.C:
			runReminderSweep(ctx, appointments)
		}
	}
}

func runReminderSweep(ctx context.Context, appointments *service.AppointmentService) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	count, err := appointments.SendDueReminders(sweepCtx, time.Now().UTC())
	if err != nil {
		logger.Log.WithError(err).Error("Ошибка рассылки напоминаний")
		return
	}
	if count > 0 {
		logger.Log.WithField("count", count).Info("Напоминания о встречах отправлены")
	}
}

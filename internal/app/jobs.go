package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultWebhookLogDays applies when webhook_log_days is not positive.
const DefaultWebhookLogDays = 90

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@daily", a.PurgeWebhookLog)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// PurgeWebhookLog clears expired webhook delivery log entries
func (a *Application) PurgeWebhookLog() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.reconciler == nil {
		return
	}

	days := a.appConfig.MercadoPago.WebhookLogDays
	if days <= 0 {
		days = DefaultWebhookLogDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := a.reconciler.PurgeEvents(ctx, time.Hour*24*time.Duration(days))
	if err != nil {
		zap.L().Error("webhook log purge failed", zap.Error(err), zap.String("namespace", "webhook"))
		return
	}
	zap.L().Info("webhook log purged",
		zap.Int64("deleted", n),
		zap.Int("retention_days", days),
		zap.String("namespace", "webhook"))
}

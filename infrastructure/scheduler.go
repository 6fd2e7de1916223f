package infrastructure

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// TokenJanitor periodically clears expired magic-link tokens.
type TokenJanitor struct {
	store   *Store
	metrics *Metrics
	cron    *cron.Cron
}

func NewTokenJanitor(store *Store, metrics *Metrics, schedule string) (*TokenJanitor, error) {
	j := &TokenJanitor{store: store, metrics: metrics, cron: cron.New()}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *TokenJanitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := j.store.PurgeExpiredTokens(ctx, j.store.Tokens.Now())
	if err != nil {
		log.WithError(err).Error("failed to purge expired tokens")
		return
	}
	j.metrics.TokensPurged(purged)
	if purged > 0 {
		log.WithField("purged", purged).Info("purged expired tokens")
	}
}

func (j *TokenJanitor) Start() {
	j.cron.Start()
	log.Info("token janitor started")
}

// Stop waits for a running purge to finish.
func (j *TokenJanitor) Stop() {
	<-j.cron.Stop().Done()
}

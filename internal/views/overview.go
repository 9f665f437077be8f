package views

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const (
	pathDashboard   = "/dashboard/"
	pathPublicStats = "/stats/public/"
)

// Overview is the dashboard plus the public statistics
type Overview struct {
	deps

	mu        sync.RWMutex
	dashboard *model.Dashboard
	stats     *model.PublicStats
}

// NewOverview creates an empty overview
func NewOverview(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Overview {
	return &Overview{deps: newDeps(client, sess, logger)}
}

// Load fetches the dashboard and the public stats concurrently. Either
// failure fails the load and keeps the previous copies.
func (v *Overview) Load(ctx context.Context) error {
	if _, err := v.currentUser("load dashboard"); err != nil {
		return err
	}

	var (
		dashboard model.Dashboard
		stats     model.PublicStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.client.Get(gctx, pathDashboard, &dashboard) })
	g.Go(func() error { return v.client.Get(gctx, pathPublicStats, &stats) })
	if err := g.Wait(); err != nil {
		return v.fail("load dashboard", err)
	}

	v.mu.Lock()
	v.dashboard = &dashboard
	v.stats = &stats
	v.mu.Unlock()
	return nil
}

// LoadStats fetches only the public stats; it needs no session
func (v *Overview) LoadStats(ctx context.Context) error {
	var stats model.PublicStats
	if err := v.client.Get(ctx, pathPublicStats, &stats); err != nil {
		return v.fail("load stats", err)
	}
	v.mu.Lock()
	v.stats = &stats
	v.mu.Unlock()
	return nil
}

// Dashboard returns a copy of the last loaded dashboard, or nil
func (v *Overview) Dashboard() *model.Dashboard {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dashboard.Clone()
}

// Stats returns a copy of the last loaded public stats, or nil
func (v *Overview) Stats() *model.PublicStats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.stats == nil {
		return nil
	}
	s := *v.stats
	return &s
}

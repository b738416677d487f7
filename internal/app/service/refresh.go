package service

import (
	"context"
	"sync"

	"xrpl_control_room/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

type fetchFunc func(ctx context.Context, id string) (entity.Wallet, error)

// refreshConcurrently fetches every id with at most limit fetches in flight.
// Goroutines never return an error, so one failing wallet cannot cancel or
// short-circuit the others.
func refreshConcurrently(ctx context.Context, ids []string, limit int, fetch fetchFunc) entity.RefreshReport {
	var (
		mu     sync.Mutex
		report entity.RefreshReport
	)

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for _, id := range ids {
		g.Go(func() error {
			w, err := fetch(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				// removed while the pass was running
				report.Failed = append(report.Failed, entity.RefreshError{WalletID: id, Message: err.Error()})
			case w.Error != nil:
				report.Refreshed++
				report.Failed = append(report.Failed, entity.RefreshError{WalletID: id, Address: w.Address, Message: *w.Error})
			default:
				report.Refreshed++
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}

package server

import (
	"context"
	"time"

	"github.com/existflow/vibetrack/internal/logger"
)

func (s *Server) scheduleCleanup() error {
	_, err := s.cron.AddFunc(s.cfg.SessionPurgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.purgeExpiredSessions(ctx)
	})
	return err
}

// purgeExpiredSessions deletes sessions past their expiry
func (s *Server) purgeExpiredSessions(ctx context.Context) int64 {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		logger.Error("session purge failed", logger.Err(err))
		return 0
	}
	if n > 0 {
		s.metrics.sessionsPurged.Add(float64(n))
		logger.Info("purged expired sessions", logger.F("count", n))
	}
	return n
}

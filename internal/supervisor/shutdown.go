package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully tears down every component in dependency order and
// blocks until all supervised goroutines have returned.
func (s *Supervisor) Shutdown() error {
	s.logger.Info("supervisor-shutting-down")

	s.healthChecker.SetReady(false)
	s.cancel()

	s.mu.RLock()
	for _, ticket := range s.liquidityTickets {
		ticket.Cancel()
	}
	s.mu.RUnlock()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if s.breaker != nil {
		// BalanceCircuitBreaker stops on ctx cancellation; nothing further to close.
		_ = s.breaker
	}

	if err := s.storage.Close(); err != nil {
		s.logger.Error("storage-close-error", zap.Error(err))
	}

	if err := s.tradeLog.Close(); err != nil {
		s.logger.Error("trade-log-close-error", zap.Error(err))
	}

	s.wg.Wait()

	s.logger.Info("supervisor-shutdown-complete")

	return nil
}

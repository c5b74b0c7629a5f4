package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Extender — то, что планировщик умеет запускать.
type Extender interface {
	ExtendAll(ctx context.Context) ([]*model.Booking, error)
}

// Scheduler управляет фоновым продлением серий: один прогон сразу при
// старте и дальше по cron-расписанию (по умолчанию раз в сутки).
type Scheduler struct {
	extension Extender
	cron      *cron.Cron
	schedule  string
	logger    *zap.Logger

	// Прогоны не должны перекрываться: два одновременных продления одной
	// серии могли бы считать горизонт наперегонки.
	runMu sync.Mutex

	// Стартовый прогон запускается вне cron, Stop дожидается его отдельно.
	wg sync.WaitGroup
}

func NewScheduler(extension Extender, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		extension: extension,
		cron:      cron.New(),
		schedule:  schedule,
		logger:    logger,
	}
}

// Start запускает фоновое продление серий.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.String("schedule", s.schedule))

	_, err := s.cron.AddFunc(s.schedule, func() { s.runExtension(ctx) })
	if err != nil {
		return fmt.Errorf("schedule extension job: %w", err)
	}

	// Первый запуск сразу при старте, чтобы горизонт не ждал до ночи.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runExtension(ctx)
	}()

	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и дожидается текущего прогона,
// включая стартовый: пул соединений нельзя закрывать под ним.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) runExtension(ctx context.Context) {
	if !s.runMu.TryLock() {
		s.logger.Warn("Previous extension run still in progress, skipping")
		return
	}
	defer s.runMu.Unlock()

	s.logger.Info("Starting series extension run")

	created, err := s.extension.ExtendAll(ctx)
	if err != nil {
		s.logger.Error("Series extension run failed", zap.Error(err))
		return
	}

	s.logger.Info("Series extension run finished", zap.Int("created_count", len(created)))
}

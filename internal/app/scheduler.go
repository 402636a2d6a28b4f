package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HorizonRefresher догенерирует слоты на скользящее окно
type HorizonRefresher interface {
	RefreshHorizon(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	refresher HorizonRefresher
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewScheduler создаёт планировщик. interval <= 0 отключает фоновую генерацию.
func NewScheduler(refresher HorizonRefresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Background slot generation disabled")
		close(s.done)
		return
	}

	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runSlotGenerationTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прогона
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

// runSlotGenerationTask периодически сдвигает окно слотов
func (s *Scheduler) runSlotGenerationTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.generateSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return
		}
	}
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	started := time.Now()

	if err := s.refresher.RefreshHorizon(ctx); err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed",
		zap.Duration("took", time.Since(started)))
}

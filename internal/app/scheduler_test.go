package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingExtender держит прогон открытым, пока тест не отпустит его.
type blockingExtender struct {
	started  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func newBlockingExtender() *blockingExtender {
	return &blockingExtender{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (e *blockingExtender) ExtendAll(context.Context) ([]*model.Booking, error) {
	close(e.started)
	<-e.release
	e.finished.Store(true)
	return nil, nil
}

func TestScheduler_StopDrainsStartupRun(t *testing.T) {
	extender := newBlockingExtender()
	scheduler := NewScheduler(extender, "@daily", zap.NewNop())

	require.NoError(t, scheduler.Start(context.Background()))

	// Стартовый прогон уже идёт и заблокирован.
	select {
	case <-extender.started:
	case <-time.After(5 * time.Second):
		t.Fatal("startup extension run never started")
	}

	// Отпускаем прогон чуть позже, чем вызываем Stop: если Stop не ждёт
	// стартовую горутину, он вернётся раньше завершения прогона.
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(extender.release)
	}()

	scheduler.Stop()
	assert.True(t, extender.finished.Load(), "Stop returned before the startup run finished")
}

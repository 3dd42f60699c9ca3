package globe

import (
	"context"
	"sync"
	"time"

	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// MaxConsecutiveRenderErrors is the number of failed frames in a row that stops the loop.
const MaxConsecutiveRenderErrors = 2

// Loop drives Scene.Step and Renderer.Render on a fixed interval between Start and Stop.
type Loop struct {
	scene    *Scene
	renderer Renderer
	interval time.Duration
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a stopped loop.
func NewLoop(scene *Scene, renderer Renderer, interval time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Loop {
	return &Loop{
		scene:    scene,
		renderer: renderer,
		interval: interval,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Start launches the loop. It returns false if the loop is already running.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		select {
		case <-l.done:
		default:
			return false
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(runCtx, l.done)
	return true
}

// Stop cancels the loop and waits for the current frame to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop goroutine is alive.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Done is closed when the current run ends, by Stop or by repeated render errors.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return l.done
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	l.metrics.GlobeLoopActive.Set(1)
	defer l.metrics.GlobeLoopActive.Set(0)

	l.logger.Debug(ctx, "[GLOBE_LOOP] Render loop started", logging.Fields{
		"interval_ms": l.interval.Milliseconds(),
	})

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug(ctx, "[GLOBE_LOOP] Render loop stopped", logging.Fields{})
			return
		case <-ticker.C:
		}

		frame := l.scene.Step()
		l.metrics.GlobeMarkers.Set(float64(len(frame.Markers)))

		if err := l.renderer.Render(frame); err != nil {
			failures++
			l.metrics.GlobeRenderErrors.Inc()
			l.logger.Error(ctx, "[GLOBE_RENDER_ERROR] Frame failed to render", logging.Fields{
				"consecutive_failures": failures,
			}, err)
			if failures >= MaxConsecutiveRenderErrors {
				l.logger.Warn(ctx, "[GLOBE_LOOP] Render keeps failing, loop terminated", logging.Fields{
					"consecutive_failures": failures,
				})
				return
			}
			continue
		}

		failures = 0
		l.metrics.GlobeFramesTotal.Inc()
	}
}

// ABOUTME: Host telemetry sampled while questions are being answered
// ABOUTME: Tracks CPU and memory peaks per monitoring window and keeps a bounded history
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
)

const (
	// DefaultHistorySize keeps roughly the last 30 seconds at the default interval
	DefaultHistorySize = 30
	DefaultInterval    = time.Second

	gigabyte = 1024 * 1024 * 1024
)

// Sample is one reading of host load
type Sample struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryUsedGB  float64   `json:"memory_used"`
	MemoryTotalGB float64   `json:"memory_total"`
	MemoryPercent float64   `json:"memory_percent"`
	Timestamp     time.Time `json:"timestamp"`
}

// Peaks are the highest readings seen while monitoring was active
type Peaks struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
}

// Sampler reads the current host load
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// HostSampler reads CPU and memory through gopsutil
type HostSampler struct {
	// CPUWindow is how long CPU usage is measured for each sample
	CPUWindow time.Duration
}

// Sample implements Sampler
func (h HostSampler) Sample(ctx context.Context) (Sample, error) {
	window := h.CPUWindow
	if window <= 0 {
		window = 100 * time.Millisecond
	}

	percents, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read memory usage: %w", err)
	}

	s := Sample{
		MemoryUsedGB:  round2(float64(vm.Used) / gigabyte),
		MemoryTotalGB: round2(float64(vm.Total) / gigabyte),
		MemoryPercent: round2(vm.UsedPercent),
		Timestamp:     time.Now(),
	}
	if len(percents) > 0 {
		s.CPUPercent = round2(percents[0])
	}
	return s, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// Options configures a Monitor
type Options struct {
	HistorySize int
	Interval    time.Duration
	Logger      *slog.Logger
}

// Monitor samples the host in the background while at least one window is open
type Monitor struct {
	sampler     Sampler
	historySize int
	interval    time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	sessions int
	peaks    Peaks
	baseline *Sample
	history  []Sample
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Monitor
func New(sampler Sampler, opts Options) *Monitor {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Monitor{
		sampler:     sampler,
		historySize: opts.HistorySize,
		interval:    opts.Interval,
		logger:      logging.OrDefault(opts.Logger),
	}
}

// Start opens a monitoring window. The first open window resets the peaks and records a baseline.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.sessions++
	first := m.sessions == 1
	if first {
		m.peaks = Peaks{}
		m.baseline = nil
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		m.cancel = cancel
		m.done = make(chan struct{})
		go m.loop(loopCtx, m.done)
	}
	m.mu.Unlock()

	if first {
		if s, err := m.Sample(ctx); err == nil {
			m.mu.Lock()
			m.baseline = &s
			m.mu.Unlock()
		}
	}
}

// Stop closes a monitoring window and returns the peaks seen so far
func (m *Monitor) Stop() Peaks {
	m.mu.Lock()
	if m.sessions == 0 {
		peaks := m.peaks
		m.mu.Unlock()
		return peaks
	}
	m.sessions--
	var done chan struct{}
	if m.sessions == 0 {
		m.cancel()
		done = m.done
	}
	peaks := m.peaks
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	return peaks
}

// Track runs fn inside a monitoring window and returns the peaks it caused
func (m *Monitor) Track(ctx context.Context, fn func()) Peaks {
	m.Start(ctx)
	fn()
	return m.Stop()
}

// Active reports whether any monitoring window is open
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions > 0
}

// Sample reads the host once, appends to the history and raises the peaks if active
func (m *Monitor) Sample(ctx context.Context) (Sample, error) {
	s, err := m.sampler.Sample(ctx)
	if err != nil {
		return Sample{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, s)
	if over := len(m.history) - m.historySize; over > 0 {
		m.history = append([]Sample(nil), m.history[over:]...)
	}
	if m.sessions > 0 {
		m.peaks.CPU = max(m.peaks.CPU, s.CPUPercent)
		m.peaks.Memory = max(m.peaks.Memory, s.MemoryPercent)
	}
	return s, nil
}

// Peaks returns the peaks of the current or last window
func (m *Monitor) Peaks() Peaks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peaks
}

// Baseline returns the sample taken when the current window opened
func (m *Monitor) Baseline() (Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseline == nil {
		return Sample{}, false
	}
	return *m.baseline, true
}

// History returns a copy of the recent samples, oldest first
func (m *Monitor) History() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sample(nil), m.history...)
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sample(ctx); err != nil && ctx.Err() == nil {
				m.logger.Debug("telemetry sample failed", "error", err)
			}
		}
	}
}

package receiver

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics снимок счётчиков приёмника. PacketsReceived и BytesReceived
// монотонны за время жизни приёмника; WindowBytes сбрасывается каждым
// отчётом и никогда не отражает больше одного интервала трафика.
type Statistics struct {
	PacketsReceived uint64
	BytesReceived   uint64
	WindowBytes     uint64
	WindowStart     time.Time
}

// Report периодический отчёт пропускной способности
type Report struct {
	Packets  uint64        // Пакетов за время жизни приёмника
	WindowKB float64       // Килобайт за окно
	Kbps     float64       // Килобит в секунду за окно
	Elapsed  time.Duration // Фактическая длительность окна
}

// statsWindow накапливает счётчики пакетов/байт и выдаёт отчёт
// по фиксированному окну wall-clock времени.
//
// record и maybeReport вызываются только из горутины приёма;
// snapshot может вызываться управляющим потоком в любой момент.
type statsWindow struct {
	interval time.Duration
	onReport func(Report)
	logger   *slog.Logger
	metrics  *Metrics

	packetsReceived atomic.Uint64
	bytesReceived   atomic.Uint64

	mu          sync.Mutex
	windowBytes uint64
	windowStart time.Time
}

func newStatsWindow(interval time.Duration, onReport func(Report),
	logger *slog.Logger, metrics *Metrics) *statsWindow {
	return &statsWindow{
		interval:    interval,
		onReport:    onReport,
		logger:      logger,
		metrics:     metrics,
		windowStart: time.Now(),
	}
}

// reset начинает новое окно; вызывается при каждом Start()
func (s *statsWindow) reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowBytes = 0
	s.windowStart = now
}

// record учитывает успешно декодированную датаграмму
func (s *statsWindow) record(payloadLen int) {
	s.packetsReceived.Add(1)
	s.bytesReceived.Add(uint64(payloadLen))
	s.metrics.onPacket(payloadLen)

	s.mu.Lock()
	s.windowBytes += uint64(payloadLen)
	s.mu.Unlock()
}

// maybeReport выдаёт отчёт, если текущее окно истекло, и начинает новое.
// Окно с нулевой длительностью отчёт не порождает: деление на ноль
// недопустимо.
func (s *statsWindow) maybeReport(now time.Time) {
	s.mu.Lock()

	elapsed := now.Sub(s.windowStart)
	if elapsed < s.interval {
		s.mu.Unlock()
		return
	}

	elapsedMs := elapsed.Milliseconds()
	if elapsedMs <= 0 {
		s.mu.Unlock()
		return
	}

	windowBytes := s.windowBytes
	s.windowBytes = 0
	s.windowStart = now
	s.mu.Unlock()

	report := Report{
		Packets:  s.packetsReceived.Load(),
		WindowKB: float64(windowBytes) / 1024.0,
		Kbps:     float64(windowBytes) * 8.0 / float64(elapsedMs),
		Elapsed:  elapsed,
	}

	s.metrics.onReport(report.Kbps)

	s.logger.Info("Статистика приёма",
		slog.Uint64("packets", report.Packets),
		slog.Float64("window_kb", report.WindowKB),
		slog.Float64("kbps", report.Kbps))

	if s.onReport != nil {
		s.onReport(report)
	}
}

// snapshot возвращает текущие значения счётчиков
func (s *statsWindow) snapshot() Statistics {
	s.mu.Lock()
	windowBytes := s.windowBytes
	windowStart := s.windowStart
	s.mu.Unlock()

	return Statistics{
		PacketsReceived: s.packetsReceived.Load(),
		BytesReceived:   s.bytesReceived.Load(),
		WindowBytes:     windowBytes,
		WindowStart:     windowStart,
	}
}

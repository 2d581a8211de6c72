package receiver

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// ProbeToken содержимое handshake датаграммы. Отправитель ждёт её,
// чтобы узнать адрес приёмника (и открыть состояние NAT/firewall)
// перед началом потока. Это application-level rendezvous, не часть RTP.
const ProbeToken = "RTP_CLIENT_READY"

// handshakeCoordinator отправляет probe датаграмму с фиксированным
// интервалом до прихода первой входящей датаграммы. После первого
// приёма probe не возобновляется до конца сессии, даже через
// транзитные таймауты чтения.
type handshakeCoordinator struct {
	transport Transport
	interval  time.Duration
	logger    *slog.Logger
	metrics   *Metrics

	// waitingForFirstPacket читается горутиной приёма и снимается
	// навсегда; atomic для видимости из Stats/тестов
	waitingForFirstPacket atomic.Bool
	lastProbeTime         time.Time
	probesSent            atomic.Uint64
}

func newHandshakeCoordinator(transport Transport, interval time.Duration,
	logger *slog.Logger, metrics *Metrics) *handshakeCoordinator {
	h := &handshakeCoordinator{
		transport: transport,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
		// Первый probe уходит через полный интервал после старта,
		// давая отправителю шанс начать поток самостоятельно
		lastProbeTime: time.Now(),
	}
	h.waitingForFirstPacket.Store(true)
	return h
}

// maybeProbe отправляет probe, если первый пакет ещё не пришёл и с
// прошлой отправки прошёл интервал. Вызывается только из горутины приёма.
func (h *handshakeCoordinator) maybeProbe(now time.Time) {
	if !h.waitingForFirstPacket.Load() {
		return
	}
	if now.Sub(h.lastProbeTime) < h.interval {
		return
	}

	if err := h.transport.Send([]byte(ProbeToken)); err != nil {
		h.logger.Warn("Ошибка отправки probe датаграммы",
			slog.String("error", err.Error()))
	} else {
		h.probesSent.Add(1)
		h.metrics.onProbeSent()
		h.logger.Debug("Отправлена probe датаграмма",
			slog.String("token", ProbeToken))
	}
	h.lastProbeTime = now
}

// packetReceived фиксирует приход первой датаграммы; probe навсегда
// прекращаются
func (h *handshakeCoordinator) packetReceived() {
	if h.waitingForFirstPacket.CompareAndSwap(true, false) {
		h.logger.Info("Первая датаграмма получена, probe остановлены",
			slog.Uint64("probes_sent", h.probesSent.Load()))
	}
}

// ProbesSent возвращает количество отправленных probe датаграмм
func (h *handshakeCoordinator) ProbesSent() uint64 {
	return h.probesSent.Load()
}

// metrics.go - Экспорт счётчиков приёмника в Prometheus
package receiver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics экспортирует счётчики приёмника для внешнего мониторинга.
// Все методы безопасны при nil получателе: приёмник без метрик
// работает без дополнительных проверок в горячем цикле.
type Metrics struct {
	packetsReceived prometheus.Counter
	bytesReceived   prometheus.Counter
	decodeErrors    prometheus.Counter
	transportErrors prometheus.Counter
	probesSent      prometheus.Counter
	windowKbps      prometheus.Gauge
}

// NewMetrics регистрирует метрики приёмника в переданном Registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		packetsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rtp_receiver",
			Name:      "packets_received_total",
			Help:      "Количество успешно декодированных RTP пакетов",
		}),
		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rtp_receiver",
			Name:      "payload_bytes_received_total",
			Help:      "Количество принятых байт payload (без заголовков)",
		}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rtp_receiver",
			Name:      "decode_errors_total",
			Help:      "Количество отброшенных датаграмм с невалидным RTP заголовком",
		}),
		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rtp_receiver",
			Name:      "transport_errors_total",
			Help:      "Количество сетевых ошибок приёма (кроме таймаутов)",
		}),
		probesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rtp_receiver",
			Name:      "probes_sent_total",
			Help:      "Количество отправленных handshake probe датаграмм",
		}),
		windowKbps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtp_receiver",
			Name:      "window_throughput_kbps",
			Help:      "Пропускная способность за последнее отчётное окно",
		}),
	}
}

func (m *Metrics) onPacket(payloadLen int) {
	if m == nil {
		return
	}
	m.packetsReceived.Inc()
	m.bytesReceived.Add(float64(payloadLen))
}

func (m *Metrics) onDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) onTransportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}

func (m *Metrics) onProbeSent() {
	if m == nil {
		return
	}
	m.probesSent.Inc()
}

func (m *Metrics) onReport(kbps float64) {
	if m == nil {
		return
	}
	m.windowKbps.Set(kbps)
}

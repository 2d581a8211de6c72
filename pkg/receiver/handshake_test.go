package receiver

import (
	"log/slog"
	"testing"
	"time"
)

// === ТЕСТЫ КООРДИНАТОРА HANDSHAKE ===

// TestHandshakeProbeCadence проверяет интервал отправки probe
// и остановку после первого пакета на синтетических временных метках
func TestHandshakeProbeCadence(t *testing.T) {
	mock := NewMockTransport(true)
	h := newHandshakeCoordinator(mock, 2*time.Second, slog.Default(), nil)

	start := h.lastProbeTime

	// До истечения интервала probe не уходит
	h.maybeProbe(start.Add(time.Second))
	if h.ProbesSent() != 0 {
		t.Fatal("probe отправлен раньше интервала")
	}

	// Ровно через интервал - первый probe
	h.maybeProbe(start.Add(2 * time.Second))
	if h.ProbesSent() != 1 {
		t.Fatal("probe не отправлен по истечении интервала")
	}
	if string(mock.SentPayloads()[0]) != ProbeToken {
		t.Errorf("содержимое probe: %q", mock.SentPayloads()[0])
	}

	// Следующий тик сразу после отправки молчит
	h.maybeProbe(start.Add(2*time.Second + 100*time.Millisecond))
	if h.ProbesSent() != 1 {
		t.Fatal("probe отправлен чаще интервала")
	}

	// Через ещё интервал - второй
	h.maybeProbe(start.Add(4 * time.Second))
	if h.ProbesSent() != 2 {
		t.Fatal("второй probe не отправлен")
	}
}

// TestHandshakeStopsPermanently проверяет что после первого пакета
// probe не возобновляются ни при каких временных метках
func TestHandshakeStopsPermanently(t *testing.T) {
	mock := NewMockTransport(true)
	h := newHandshakeCoordinator(mock, 2*time.Second, slog.Default(), nil)

	start := h.lastProbeTime
	h.maybeProbe(start.Add(2 * time.Second))
	if h.ProbesSent() != 1 {
		t.Fatal("probe не отправлен")
	}

	h.packetReceived()

	// Даже спустя много интервалов probe молчат
	for i := 1; i <= 10; i++ {
		h.maybeProbe(start.Add(time.Duration(i) * 10 * time.Second))
	}
	if h.ProbesSent() != 1 {
		t.Errorf("probe возобновились: %d отправок", h.ProbesSent())
	}

	// Повторный packetReceived безопасен
	h.packetReceived()
	if h.waitingForFirstPacket.Load() {
		t.Error("флаг ожидания первого пакета восстановился")
	}
}

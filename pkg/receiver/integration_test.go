package receiver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/rtp_receiver/pkg/rtp"
)

// === ИНТЕГРАЦИОННЫЕ ТЕСТЫ НА РЕАЛЬНЫХ СОКЕТАХ ===

// loopbackAddr возвращает loopback адрес запущенного приёмника:
// bound режим слушает wildcard, для отправки нужен конкретный IP
func loopbackAddr(t *testing.T, r *Receiver) string {
	t.Helper()
	_, port, err := net.SplitHostPort(r.LocalAddr())
	require.NoError(t, err)
	return net.JoinHostPort("127.0.0.1", port)
}

// TestEndToEndBoundMode поднимает приёмник в bound режиме на реальном
// UDP сокете и доставляет ему RTP датаграмму через localhost
func TestEndToEndBoundMode(t *testing.T) {
	r, err := New(Config{
		Mode:               ModeBound,
		LocalPort:          0, // эфемерный порт для изоляции тестов
		InitialReadTimeout: 20 * time.Millisecond,
		SteadyReadTimeout:  20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, r.Start())
	defer r.Stop()

	conn, err := net.Dial("udp", loopbackAddr(t, r))
	require.NoError(t, err)
	defer conn.Close()

	packet, err := rtp.Encode(rtp.Header{
		PayloadType:    uint8(rtp.PayloadTypePCMU),
		SequenceNumber: 1,
		Timestamp:      160,
		SSRC:           0xAABBCCDD,
	}, make([]byte, 160))
	require.NoError(t, err)

	_, err = conn.Write(packet)
	require.NoError(t, err)

	waitFor(t, 2*time.Second, func() bool {
		return r.Stats().PacketsReceived == 1
	}, "датаграмма не дошла до приёмника")

	stats := r.Stats()
	assert.Equal(t, uint64(160), stats.BytesReceived)
}

// TestEndToEndRestart проверяет полный цикл Start-Stop-Start на
// реальном сокете: сокет и горутина пересоздаются
func TestEndToEndRestart(t *testing.T) {
	r, err := New(Config{
		Mode:               ModeBound,
		LocalPort:          0,
		InitialReadTimeout: 20 * time.Millisecond,
		SteadyReadTimeout:  20 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, r.Start())
	require.NotEmpty(t, r.LocalAddr())
	require.NoError(t, r.Stop())

	require.NoError(t, r.Start())
	defer r.Stop()
	assert.NotEmpty(t, r.LocalAddr())

	conn, err := net.Dial("udp", loopbackAddr(t, r))
	require.NoError(t, err)
	defer conn.Close()

	packet, err := rtp.Encode(rtp.Header{SequenceNumber: 9}, []byte{1, 2, 3})
	require.NoError(t, err)
	_, err = conn.Write(packet)
	require.NoError(t, err)

	waitFor(t, 2*time.Second, func() bool {
		return r.Stats().PacketsReceived == 1
	}, "приёмник не работает после рестарта")
}

// TestEndToEndHandshakeRendezvous проверяет rendezvous: приёмник в
// connected режиме шлёт probe, "отправитель" начинает поток после её
// получения
func TestEndToEndHandshakeRendezvous(t *testing.T) {
	// Сторона отправителя: bound сокет на эфемерном порту
	senderConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer senderConn.Close()

	senderPort := senderConn.LocalAddr().(*net.UDPAddr).Port

	r, err := New(Config{
		Mode:               ModeConnected,
		RemoteAddr:         "127.0.0.1",
		RemotePort:         senderPort,
		InitialReadTimeout: 10 * time.Millisecond,
		SteadyReadTimeout:  20 * time.Millisecond,
		ProbeInterval:      50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, r.Start())
	defer r.Stop()

	// Ждём probe от приёмника
	buf := make([]byte, 64)
	senderConn.SetReadDeadline(time.Now().Add(3 * time.Second))
	n, clientAddr, err := senderConn.ReadFromUDP(buf)
	require.NoError(t, err, "probe не получена")
	assert.Equal(t, ProbeToken, string(buf[:n]))

	// Отвечаем RTP потоком на адрес из probe
	packet, err := rtp.Encode(rtp.Header{SequenceNumber: 1}, make([]byte, 160))
	require.NoError(t, err)
	_, err = senderConn.WriteToUDP(packet, clientAddr)
	require.NoError(t, err)

	waitFor(t, 2*time.Second, func() bool {
		return r.Stats().PacketsReceived == 1
	}, "поток после rendezvous не принят")
}

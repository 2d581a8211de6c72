package receiver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var errMockTimeout = errors.New("mock: i/o timeout")

// === MOCK ТРАНСПОРТ ДЛЯ ТЕСТИРОВАНИЯ ===

// MockTransport имитирует транспорт датаграмм для unit тестов.
// Дополнительно отслеживает гонку close/receive: Close во время
// активного Receive поднимает флаг raceDetected.
type MockTransport struct {
	mutex      sync.Mutex
	sent       [][]byte
	incoming   chan []byte
	localAddr  *net.UDPAddr
	remoteAddr *net.UDPAddr
	active     bool

	activeReceives atomic.Int32
	raceDetected   atomic.Bool
	closedAt       atomic.Int64 // UnixNano момента Close
}

// NewMockTransport создает mock транспорт; withRemote управляет тем,
// известен ли удалённый адрес (от этого зависит handshake)
func NewMockTransport(withRemote bool) *MockTransport {
	mt := &MockTransport{
		incoming:  make(chan []byte, 100),
		localAddr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5004},
		active:    true,
	}
	if withRemote {
		mt.remoteAddr = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 5004}
	}
	return mt
}

// Inject подаёт датаграмму в очередь входящих
func (mt *MockTransport) Inject(data []byte) {
	mt.incoming <- data
}

// SentCount возвращает количество отправленных датаграмм
func (mt *MockTransport) SentCount() int {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	return len(mt.sent)
}

// SentPayloads возвращает копии отправленных датаграмм
func (mt *MockTransport) SentPayloads() [][]byte {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	out := make([][]byte, len(mt.sent))
	copy(out, mt.sent)
	return out
}

func (mt *MockTransport) Receive(buf []byte, timeout time.Duration) (int, net.Addr, error) {
	mt.mutex.Lock()
	active := mt.active
	mt.mutex.Unlock()

	if !active {
		return 0, nil, ErrTransportClosed
	}

	mt.activeReceives.Add(1)
	defer mt.activeReceives.Add(-1)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-mt.incoming:
		n := copy(buf, data)
		return n, &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 5004}, nil
	case <-timer.C:
		return 0, nil, &ClassifiedError{
			Type:      ErrorTypeTimeout,
			Operation: "mock read",
			Err:       errMockTimeout,
			Retryable: true,
		}
	}
}

func (mt *MockTransport) Send(payload []byte) error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()

	if !mt.active {
		return ErrTransportClosed
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	mt.sent = append(mt.sent, data)
	return nil
}

func (mt *MockTransport) LocalAddr() net.Addr {
	return mt.localAddr
}

func (mt *MockTransport) RemoteAddr() net.Addr {
	if mt.remoteAddr == nil {
		return nil
	}
	return mt.remoteAddr
}

func (mt *MockTransport) Close() error {
	if mt.activeReceives.Load() > 0 {
		mt.raceDetected.Store(true)
	}
	mt.closedAt.Store(time.Now().UnixNano())

	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.active = false
	return nil
}

func (mt *MockTransport) IsActive() bool {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	return mt.active
}

package receiver

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// UDPTransport реализует Transport поверх UDP сокета.
//
// В режиме connected сокет подключён к отправителю через connect():
// ядро доставляет только его датаграммы. В режиме bound сокет привязан
// к 0.0.0.0:<port> и принимает от любого источника.
type UDPTransport struct {
	conn       *net.UDPConn
	remoteAddr *net.UDPAddr
	connected  bool

	active bool
	mutex  sync.RWMutex
}

// NewUDPTransport создает UDP транспорт в режиме из конфигурации.
// Код ошибки ОС при сбое bind/connect сохраняется в цепочке ошибок.
func NewUDPTransport(config Config) (*UDPTransport, error) {
	switch config.Mode {
	case ModeConnected:
		return newConnectedTransport(config)
	case ModeBound:
		return newBoundTransport(config)
	default:
		return nil, fmt.Errorf("неизвестный режим транспорта: %d", config.Mode)
	}
}

func newConnectedTransport(config Config) (*UDPTransport, error) {
	remoteAddr, err := resolveRemote(config.RemoteAddr, config.RemotePort)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp", nil, remoteAddr)
	if err != nil {
		return nil, classifyNetworkError("UDP connect", err)
	}

	if err := tuneSocket(conn, config.SocketRecvBuffer); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка настройки сокета: %w", err)
	}

	return &UDPTransport{
		conn:       conn,
		remoteAddr: remoteAddr,
		connected:  true,
		active:     true,
	}, nil
}

func newBoundTransport(config Config) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: config.LocalPort})
	if err != nil {
		return nil, classifyNetworkError("UDP bind", err)
	}

	if err := tuneSocket(conn, config.SocketRecvBuffer); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка настройки сокета: %w", err)
	}

	transport := &UDPTransport{
		conn:   conn,
		active: true,
	}

	// Опциональный удалённый адрес: в режиме bound нужен только
	// как цель handshake probe
	if config.RemoteAddr != "" {
		remoteAddr, err := resolveRemote(config.RemoteAddr, config.RemotePort)
		if err != nil {
			conn.Close()
			return nil, err
		}
		transport.remoteAddr = remoteAddr
	}

	return transport, nil
}

// resolveRemote принимает только IP литералы. Разрешение DNS имён это
// ответственность вызывающего слоя: транспорт должен отказывать
// синхронно и предсказуемо.
func resolveRemote(addr string, port int) (*net.UDPAddr, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("невалидный IP адрес: %q", addr)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// Receive читает одну датаграмму с ограничением по времени
func (t *UDPTransport) Receive(buf []byte, timeout time.Duration) (int, net.Addr, error) {
	t.mutex.RLock()
	active := t.active
	conn := t.conn
	connected := t.connected
	remoteAddr := t.remoteAddr
	t.mutex.RUnlock()

	if !active {
		return 0, nil, ErrTransportClosed
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, classifyNetworkError("set read deadline", err)
	}

	if connected {
		n, err := conn.Read(buf)
		if err != nil {
			return 0, nil, classifyNetworkError("UDP read", err)
		}
		return n, remoteAddr, nil
	}

	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return 0, nil, classifyNetworkError("UDP read", err)
	}
	return n, addr, nil
}

// Send отправляет датаграмму удалённой стороне
func (t *UDPTransport) Send(payload []byte) error {
	t.mutex.RLock()
	active := t.active
	conn := t.conn
	connected := t.connected
	remoteAddr := t.remoteAddr
	t.mutex.RUnlock()

	if !active {
		return ErrTransportClosed
	}

	if connected {
		if _, err := conn.Write(payload); err != nil {
			return classifyNetworkError("UDP write", err)
		}
		return nil
	}

	if remoteAddr == nil {
		return ErrNoRemoteAddr
	}
	if _, err := conn.WriteToUDP(payload, remoteAddr); err != nil {
		return classifyNetworkError("UDP write", err)
	}
	return nil
}

// LocalAddr возвращает локальный адрес сокета
func (t *UDPTransport) LocalAddr() net.Addr {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// RemoteAddr возвращает удалённый адрес, если он известен
func (t *UDPTransport) RemoteAddr() net.Addr {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.remoteAddr == nil {
		return nil
	}
	return t.remoteAddr
}

// Close закрывает транспорт
func (t *UDPTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.active {
		return nil
	}

	t.active = false

	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// IsActive проверяет активность транспорта
func (t *UDPTransport) IsActive() bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.active
}

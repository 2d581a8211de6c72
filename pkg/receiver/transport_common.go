package receiver

import (
	"fmt"
	"net"
)

// DSCP значения для QoS классификации трафика согласно RFC 4594
const (
	// DSCPExpeditedForwarding EF (101110) для интерактивного аудио
	DSCPExpeditedForwarding = 46
)

// tuneSocket настраивает UDP сокет под приём аудио потока:
// увеличенный приёмный буфер против пачечной доставки и
// платформенные опции (QoS маркировка, переиспользование адреса).
// Платформенные опции best-effort: контейнеры и урезанные ядра
// могут их не поддерживать.
func tuneSocket(conn *net.UDPConn, recvBuffer int) error {
	if conn == nil {
		return fmt.Errorf("соединение не может быть nil")
	}

	if err := conn.SetReadBuffer(recvBuffer); err != nil {
		return fmt.Errorf("не удалось установить приёмный буфер %d: %w", recvBuffer, err)
	}

	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("не удалось получить системный сокет: %w", err)
	}

	return rawConn.Control(func(fd uintptr) {
		// Ошибки платформенных опций не фатальны
		applySockOptReuseAddr(fd)
		applySockOptDSCP(fd, DSCPExpeditedForwarding)
	})
}

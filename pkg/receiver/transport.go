package receiver

import (
	"net"
	"time"
)

// Transport определяет интерфейс доставки датаграмм для приёмника.
// Приёмник владеет транспортом эксклюзивно: Receive вызывается только
// из горутины приёма, Close только после её завершения.
type Transport interface {
	// Receive читает одну датаграмму в buf с ограничением по времени.
	// По истечении таймаута возвращает ошибку, для которой
	// isTimeoutError == true; это checkpoint отмены, не сбой.
	Receive(buf []byte, timeout time.Duration) (int, net.Addr, error)

	// Send отправляет датаграмму удалённой стороне: пиру connect()
	// в режиме connected или настроенному probe адресу в режиме bound
	Send(payload []byte) error

	// LocalAddr возвращает локальный адрес транспорта
	LocalAddr() net.Addr

	// RemoteAddr возвращает удалённый адрес, если он известен
	RemoteAddr() net.Addr

	// Close закрывает транспорт
	Close() error

	// IsActive проверяет активность транспорта
	IsActive() bool
}

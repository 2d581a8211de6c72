//go:build linux

package receiver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// applySockOptReuseAddr включает переиспользование адреса для быстрого
// рестарта приёмника на том же порту
func applySockOptReuseAddr(fd uintptr) {
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
}

// applySockOptDSCP устанавливает DSCP маркировку для QoS (Linux реализация).
// DSCP находится в старших 6 битах TOS поля.
func applySockOptDSCP(fd uintptr, dscp int) {
	tos := dscp << 2

	// IPv4: в некоторых Linux контейнерах могут быть ограничения, игнорируем
	syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IP, syscall.IP_TOS, tos)

	// IPv6: Linux поддерживает IPV6_TCLASS
	syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
}

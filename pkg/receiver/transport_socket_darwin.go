//go:build darwin

package receiver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// applySockOptReuseAddr включает переиспользование адреса для macOS.
// SO_REUSEPORT также доступен в современных версиях, но SO_REUSEADDR
// стабильнее для одного слушателя.
func applySockOptReuseAddr(fd uintptr) {
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
}

// applySockOptDSCP устанавливает DSCP маркировку для QoS (macOS реализация)
func applySockOptDSCP(fd uintptr, dscp int) {
	tos := dscp << 2

	syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IP, syscall.IP_TOS, tos)
	syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
}

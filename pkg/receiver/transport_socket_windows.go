//go:build windows

package receiver

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// applySockOptReuseAddr включает переиспользование адреса для Windows.
// Windows поддерживает только SO_REUSEADDR (не SO_REUSEPORT), и его
// семантика немного отличается от Unix систем.
func applySockOptReuseAddr(fd uintptr) {
	syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
}

// applySockOptDSCP для Windows заглушка: маркировка DSCP управляется
// через групповые политики QoS (qWAVE), а не через setsockopt
func applySockOptDSCP(fd uintptr, dscp int) {
	// IP_TOS в Windows игнорируется начиная с Windows 2000;
	// оставляем попытку для совместимости со старыми стеками
	windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IP, windows.IP_TOS, dscp<<2)
}

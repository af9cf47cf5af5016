//go:build unix

package http

import (
	"syscall"
)

// reuseControl returns a net.ListenConfig.Control hook that best-effort
// applies SO_REUSEADDR/SO_REUSEPORT to the listening socket before bind,
// per Options.ReuseAddr/ReusePort. Errors setting either option are
// swallowed: both are advisory performance/operational knobs, never
// required for correctness.
func reuseControl(reuseAddr, reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reuseAddr && !reusePort {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		return c.Control(func(fd uintptr) {
			if reuseAddr {
				syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			}
			if reusePort {
				syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, soReusePort, 1)
			}
		})
	}
}

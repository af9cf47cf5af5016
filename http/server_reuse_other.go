//go:build !unix

package http

import "syscall"

// reuseControl has no portable SO_REUSEADDR/SO_REUSEPORT equivalent outside
// unix; Options.ReuseAddr/ReusePort are accepted but have no effect here.
func reuseControl(reuseAddr, reusePort bool) func(network, address string, c syscall.RawConn) error {
	return nil
}

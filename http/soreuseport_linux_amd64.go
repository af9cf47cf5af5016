//go:build linux && amd64

package http

// This toolchain's syscall package omits SO_REUSEPORT for linux/amd64
// (present for every other linux arch); 0xf matches those values and the
// kernel's actual socket option number.
const soReusePort = 0xf

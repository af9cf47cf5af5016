//go:build unix && !(linux && amd64)

package http

import "syscall"

const soReusePort = syscall.SO_REUSEPORT

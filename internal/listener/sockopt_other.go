//go:build !unix

package listener

import "syscall"

// controlReuseAddr is a no-op on platforms without SO_REUSEADDR semantics we
// rely on; the Go runtime's defaults apply.
func controlReuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}

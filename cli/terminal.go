package cli

import (
	"io"
	"os"

	"github.com/lxc/incus/v6/shared/termios"
	"golang.org/x/sys/unix"
)

// nonInteractive reports whether r is the process' standard input without a terminal attached.
func nonInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok || f != os.Stdin {
		return false
	}

	return !termios.IsTerminal(unix.Stdin)
}

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package system

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// platformVersion returns the string to use for the System platformVersion
// slot. It is declared in each platform-specific file so that a compilation
// error occurs on any platform on which it is not implemented.
func platformVersion() string {
	var uname unix.Utsname
	if unix.Uname(&uname) != nil {
		// If uname failed, we don't have anything else to try.
		return ""
	}
	v, r := uname.Version[:], uname.Release[:]
	return fmt.Sprintf("%s.%s", bytes.Trim(v, "\x00"), bytes.Trim(r, "\x00"))
}

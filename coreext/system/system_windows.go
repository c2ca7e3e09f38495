package system

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// platformVersion returns the string to use for the System platformVersion
// slot. It is declared in each platform-specific file so that a compilation
// error occurs on any platform on which it is not implemented.
func platformVersion() string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return getVersion()
	}
	defer k.Close()
	v, _, err := k.GetStringValue("CurrentVersion")
	if err != nil {
		return getVersion()
	}
	return v
}

func getVersion() string {
	v, err := windows.GetVersion()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d.%d", v&0xff, v>>8&0xff)
}

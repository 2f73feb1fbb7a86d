package console

import "golang.org/x/sys/windows"

var procGetOEMCP = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetOEMCP")

// outputCodePage prefers the attached console's output code page and falls
// back to the system OEM code page when there is no console.
func outputCodePage() uint32 {
	if cp, err := windows.GetConsoleOutputCP(); err == nil && cp != 0 {
		return cp
	}
	if procGetOEMCP.Find() == nil {
		if cp, _, _ := procGetOEMCP.Call(); cp != 0 {
			return uint32(cp)
		}
	}
	return 437
}

//go:build !windows

package console

func outputCodePage() uint32 {
	return CodePageUTF8
}

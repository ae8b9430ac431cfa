//go:build linux

package procstats

// maxrssToKB converts unix.Rusage.Maxrss to kilobytes. On Linux,
// ru_maxrss is already reported in kilobytes.
func maxrssToKB(maxrss int64) int64 {
	return maxrss
}

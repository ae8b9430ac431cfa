//go:build darwin

package procstats

// maxrssToKB converts unix.Rusage.Maxrss to kilobytes. On Darwin,
// ru_maxrss is reported in bytes.
func maxrssToKB(maxrss int64) int64 {
	return maxrss / 1024
}

// Package procstats reports process resource usage, mirroring
// original_source/src/helpers.cc's Helpers::get_peak_memory_kb.
package procstats

import (
	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// PeakRSSKB returns the process's peak resident set size in
// kilobytes, or 0 if the platform call fails.
func PeakRSSKB() int64 {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		glog.Warningf("procstats: getrusage failed: %v", err)
		return 0
	}
	return maxrssToKB(usage.Maxrss)
}

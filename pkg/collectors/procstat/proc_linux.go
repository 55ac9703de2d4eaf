//go:build linux

package procstat

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// userHz is the kernel's USER_HZ tick rate used for utime/stime in
// /proc/<pid>/stat. It is 100 on every supported Linux configuration.
const userHz = 100.0

type procSample struct {
	cpuTicks   float64 // utime+stime in USER_HZ ticks
	rssBytes   float64
	numThreads float64
	readBytes  float64
	writeBytes float64
}

// readProcSample reads one observation from /proc/<pid>. The comm field in
// /proc/<pid>/stat may contain spaces, so fields are counted from the
// closing paren.
func readProcSample(pid int) (procSample, error) {
	var sample procSample

	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return sample, fmt.Errorf("read stat: %w", err)
	}

	raw := string(stat)
	commEnd := strings.LastIndexByte(raw, ')')
	if commEnd < 0 {
		return sample, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(raw[commEnd+1:])
	// After "(comm) state": fields[11]=utime, fields[12]=stime,
	// fields[17]=num_threads, fields[21]=rss (pages).
	if len(fields) < 22 {
		return sample, fmt.Errorf("truncated stat for pid %d", pid)
	}

	utime, _ := strconv.ParseFloat(fields[11], 64)
	stime, _ := strconv.ParseFloat(fields[12], 64)
	sample.cpuTicks = utime + stime

	threads, _ := strconv.ParseFloat(fields[17], 64)
	sample.numThreads = threads

	rssPages, _ := strconv.ParseFloat(fields[21], 64)
	sample.rssBytes = rssPages * float64(os.Getpagesize())

	// /proc/<pid>/io may be unreadable for foreign processes; treat the
	// counters as zero rather than failing the sample.
	if io, err := os.ReadFile(fmt.Sprintf("/proc/%d/io", pid)); err == nil {
		for _, line := range strings.Split(string(io), "\n") {
			key, value, ok := strings.Cut(line, ": ")
			if !ok {
				continue
			}
			switch key {
			case "read_bytes":
				sample.readBytes, _ = strconv.ParseFloat(value, 64)
			case "write_bytes":
				sample.writeBytes, _ = strconv.ParseFloat(value, 64)
			}
		}
	}

	return sample, nil
}

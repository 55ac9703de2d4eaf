//go:build !linux

package procstat

import (
	"errors"
	"runtime"
)

const userHz = 100.0

type procSample struct {
	cpuTicks   float64
	rssBytes   float64
	numThreads float64
	readBytes  float64
	writeBytes float64
}

func readProcSample(pid int) (procSample, error) {
	return procSample{}, errors.New("process sampling is not supported on " + runtime.GOOS)
}

package benchmarks

import (
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// startProfiling starts the cpu profile if requested. The returned
// function stops it and writes the memory profile.
func startProfiling(logger log.Logger, cpuprofile, memprofile string) (func(), error) {
	stop := func() {}
	if cpuprofile != "" {
		cpuProfPath := path.Join(saveFile, cpuprofile)
		level.Info(logger).Log("msg", "profiling CPU", "path", cpuProfPath)
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return stop, errors.Wrap(err, "could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, errors.Wrap(err, "could not start CPU profile")
		}
		stop = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}

	return func() {
		stop()
		if memprofile == "" {
			return
		}
		memProfPath := path.Join(saveFile, memprofile)
		level.Info(logger).Log("msg", "profiling memory", "path", memProfPath)
		f, err := os.Create(memProfPath)
		if err != nil {
			level.Error(logger).Log("msg", "could not create memory profile", "err", err)
			return
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			level.Error(logger).Log("msg", "could not write memory profile", "err", err)
		}
	}, nil
}

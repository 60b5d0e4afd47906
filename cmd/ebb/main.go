// Package main provides the ebb command line tool.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/ebb-ml/ebb/backend"
	_ "github.com/ebb-ml/ebb/backend/cpu"
	_ "github.com/ebb-ml/ebb/backend/webgpu"
	"github.com/ebb-ml/ebb/engine"
	"github.com/ebb-ml/ebb/internal/backend/cpu"
	"github.com/ebb-ml/ebb/internal/logging"
	"github.com/ebb-ml/ebb/kernels"
	"github.com/ebb-ml/ebb/ops"
	"github.com/ebb-ml/ebb/tensor"
)

const version = "v0.1.0-dev"

func usage() {
	fmt.Println("Ebb - a tensor compute and gradient engine for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Usage: ebb <command> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       Show backends and registered kernels")
	fmt.Println("  bench      Run a matmul benchmark on the active backend")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("ebb %s\n", version)
	case "info":
		runInfo(os.Args[2:])
	case "bench":
		runBench(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

// newBackend builds the active backend from an explicit config, the
// EBB_BACKEND environment variable or the registry default.
func newBackend(config string) backend.Backend {
	if config != "" {
		return must.M1(backend.NewWithConfig(config))
	}
	return must.M1(backend.New())
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	config := fs.String("backend", "", "backend config, e.g. cpu, cpu:serial, webgpu (default: $EBB_BACKEND)")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "log format (console, json)")
	must.M(fs.Parse(args))
	logging.Setup(*logLevel, *logFormat)

	b := newBackend(*config)
	fmt.Printf("Active backend:  %s\n", b.Description())
	fmt.Printf("Device:          %s\n", b.Device())
	fmt.Printf("Backends:        %s\n", strings.Join(backend.Registered(), ", "))
	fmt.Printf("Kernels:         %s\n", strings.Join(kernels.Registered(), ", "))
}

func runBench(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	config := fs.String("backend", "", "backend config, e.g. cpu, cpu:serial, webgpu (default: $EBB_BACKEND)")
	size := fs.Int("size", 512, "matrix dimension")
	iters := fs.Int("iters", 20, "iterations")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "log format (console, json)")
	must.M(fs.Parse(args))
	logging.Setup(*logLevel, *logFormat)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logging.Log.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logging.Log.Error("metrics server failed", "err", err)
			}
		}()
	}

	b := newBackend(*config)
	eng := engine.New(b)
	n := *size

	data := make([]float32, n*n)
	for i := range data {
		data[i] = float32(i%13)/13 - 0.5
	}
	a := must.M1(tensor.FromSlice(data, tensor.Shape{n, n}, b.Allocator()))
	c := must.M1(tensor.FromSlice(data, tensor.Shape{n, n}, b.Allocator()))

	fmt.Printf("Benchmarking %s×%s float32 matmul on %s\n",
		humanize.Comma(int64(n)), humanize.Comma(int64(n)), b.Description())

	bar := progressbar.Default(int64(*iters), "matmul")
	start := time.Now()
	for i := 0; i < *iters; i++ {
		out := must.M1(ops.MatMul(eng, a, c))
		out.Release()
		must.M(bar.Add(1))
	}
	elapsed := time.Since(start)

	a.Release()
	c.Release()

	flops := 2 * float64(n) * float64(n) * float64(n) * float64(*iters)
	fmt.Printf("\n%d iterations in %s (%.1f ms/op, %.2f GFLOP/s)\n",
		*iters, elapsed.Round(time.Millisecond),
		float64(elapsed.Milliseconds())/float64(*iters),
		flops/elapsed.Seconds()/1e9)

	if hb, ok := b.(interface{ HostAllocator() *cpu.Allocator }); ok {
		fmt.Printf("Allocator:      %s\n", hb.HostAllocator().Stats())
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yuvtool/internal/logs"
	"yuvtool/internal/server"
	"yuvtool/internal/version"
	"yuvtool/internal/yuv"
)

var (
	// errUsage reports bad flags; the flag package has already printed why.
	errUsage = errors.New("usage")
	// errDiffer is cmp's result for sequences that are not identical.
	errDiffer = errors.New("sequences differ")
)

const usage = `usage: yuvtool <command> [flags]

commands:
  cvt      convert a raw YUV sequence
  cmp      compare two sequences and report PSNR
  layout   print the computed layout of a frame
  serve    run the HTTP conversion service
  version  print build information

run "yuvtool <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if v := getEnvInt("YUV_MAX_FRAME_BYTES", 0); v > 0 {
		yuv.MaxBufferSize = v
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "cvt":
		err = runCvt(rest, stdout, stderr)
	case "cmp":
		err = runCmp(rest, stdout, stderr)
	case "layout":
		err = runLayout(rest, stdout, stderr)
	case "serve":
		err = runServe(rest, stderr)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "yuvtool", version.String())
		return 0
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "yuvtool: unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errDiffer):
		return 1
	default:
		fmt.Fprintf(stderr, "yuvtool %s: %v\n", args[0], err)
		return 1
	}
}

// newFlagSet returns a flag set sharing the -v log level flag.
func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	level := fs.String("v", getEnv("YUV_LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	return fs, level
}

// parseFlags parses args, folding flag errors into errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	return nil
}

func setupLogging(level string, stderr io.Writer) error {
	lv, err := logs.ParseLevel(level)
	if err != nil {
		return err
	}
	logs.SetLogger(logs.NewText(stderr, lv))
	return nil
}

func runServe(args []string, stderr io.Writer) error {
	fs, level := newFlagSet("serve", stderr)
	host := fs.String("host", getEnv("HOST", "0.0.0.0"), "bind host")
	port := fs.Int("port", getEnvInt("PORT", 8000), "bind port")
	maxBody := fs.Int64("max-body", int64(getEnvInt("YUV_MAX_FRAME_BYTES", 0)), "largest frame a request may need in bytes, 0 for server.DefaultMaxFrameBytes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := setupLogging(*level, stderr); err != nil {
		return err
	}
	log := logs.Logger()

	cfg := server.Config{
		Host:          *host,
		Port:          *port,
		MaxFrameBytes: *maxBody,
	}

	mux := http.NewServeMux()
	conv := server.NewConvertServer(cfg)
	conv.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Warn("conversion service listening", "addr", "http://"+srv.Addr, "version", version.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case s := <-sig:
		log.Warn("shutting down", "signal", s.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		if _, err := fmt.Sscanf(v, "%d", &x); err == nil {
			return x
		}
	}
	return def
}

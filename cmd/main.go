package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gpufilter/filter"
	"github.com/richinsley/gpufilter/glfwcontext"
	"github.com/richinsley/gpufilter/glimpl"
	"github.com/richinsley/gpufilter/graphics"
	"github.com/richinsley/gpufilter/headless"
	"github.com/richinsley/gpufilter/options"
	"github.com/richinsley/gpufilter/renderer"
	"github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("GPU video filter player")
		flag.PrintDefaults()
		return
	}
	if *opts.List {
		for _, name := range filter.Names() {
			fmt.Println(name)
		}
		return
	}

	level, err := logrus.ParseLevel(*opts.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)

	if *opts.Input == "" {
		logrus.Fatal("No input given, use -input")
	}

	if err := run(opts); err != nil {
		logrus.Fatalf("Player failed: %v", err)
	}
}

func run(opts *options.PlayerOptions) error {
	active, err := buildFilter(opts)
	if err != nil {
		return err
	}
	src, dec, err := newSource(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := renderer.NewLoop(src)
	if active != nil {
		loop.SetActiveFilter(active)
	}

	var surface graphics.Context
	if *opts.Headless {
		h, err := headless.New(*opts.Width, *opts.Height)
		if err != nil {
			return fmt.Errorf("failed to create headless context: %w", err)
		}
		defer h.Shutdown()
		surface = h
	} else {
		if err := glfwcontext.InitGraphics(); err != nil {
			return fmt.Errorf("failed to initialize GLFW: %w", err)
		}
		defer glfwcontext.TerminateGraphics()

		win, err := glfwcontext.New(*opts.Width, *opts.Height, "gpufilter")
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		defer win.Shutdown()
		registerKeys(ctx, win, loop)
		surface = win
	}

	surface.MakeCurrent()
	if err := glimpl.Init(); err != nil {
		return err
	}

	if dec != nil {
		go func() {
			if err := dec.Run(ctx, loop.Attached()); err != nil && ctx.Err() == nil {
				logrus.WithFields(logrus.Fields{
					"function": "run",
					"error":    err,
				}).Error("decoder stopped")
			}
		}()
	}

	if !*opts.Headless {
		return runLoop(ctx, loop, surface, opts)
	}

	// The loop stops once the requested snapshots are written.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	captured := make(chan error, 1)
	go func() {
		captured <- capture(ctx, loop, *opts.Output, *opts.Frames, *opts.Interval)
		cancel()
	}()
	if err := runLoop(ctx, loop, surface, opts); err != nil {
		return err
	}
	return <-captured
}

func runLoop(ctx context.Context, loop *renderer.Loop, surface graphics.Context, opts *options.PlayerOptions) error {
	logrus.WithFields(logrus.Fields{
		"function": "run",
		"input":    *opts.Input,
		"headless": *opts.Headless,
	}).Info("starting render loop")
	return loop.Run(ctx, surface, glimpl.New(surface.IsGLES()))
}

// registerKeys binds F to step through the registered filters, 0 to drop the
// filter and S to save a snapshot.
func registerKeys(ctx context.Context, surface *glfwcontext.Context, loop *renderer.Loop) {
	names := filter.Names()
	next := 0
	surface.RegisterKeyCallback(glfw.KeyF, func() {
		name := names[next%len(names)]
		next++
		f, err := filter.New(name)
		if err != nil {
			logrus.WithField("error", err).Warn("filter unavailable")
			return
		}
		logrus.WithFields(logrus.Fields{
			"function": "registerKeys",
			"filter":   name,
		}).Info("switching filter")
		loop.SetActiveFilter(f)
	})
	surface.RegisterKeyCallback(glfw.Key0, func() {
		loop.SetActiveFilter(nil)
	})
	surface.RegisterKeyCallback(glfw.KeyS, func() {
		go saveSnapshot(ctx, loop)
	})
}

func saveSnapshot(ctx context.Context, loop *renderer.Loop) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	log := logrus.WithField("function", "saveSnapshot")

	img, err := loop.Snapshot(ctx)
	if err != nil {
		log.WithField("error", err).Warn("snapshot failed")
		return
	}
	name := fmt.Sprintf("snapshot-%d.png", time.Now().Unix())
	if err := writePNG(name, img); err != nil {
		log.WithField("error", err).Warn("snapshot failed")
		return
	}
	log.WithField("file", name).Info("snapshot saved")
}

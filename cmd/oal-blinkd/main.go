// Command oal-blinkd is a host-simulated sample program: two tasks
// each toggle a simulated LED on a one-shot timer that the task re-arms
// every time it fires, and a third task
// reacts to a simulated button press delivered from "interrupt"
// context, the way OS_StartLEDBlink.c's two blink tasks and the Nucleo
// board's button ISR do on real hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	osal "github.com/songwenshuai/go-osal"
	"github.com/songwenshuai/go-osal/internal/logging"
)

const (
	eventBlinkA uint16 = 0x0001
	eventBlinkB uint16 = 0x0002
	eventButton uint16 = 0x0004
)

func main() {
	var (
		periodA = flag.Duration("period-a", 500*time.Millisecond, "blink period for LED A")
		periodB = flag.Duration("period-b", 300*time.Millisecond, "blink period for LED B")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := osal.DefaultConfig()
	cfg.NumTasks = 3
	cfg.Logger = logger
	k := osal.New(cfg)

	ledA := false
	if err := k.RegisterTask(0, func(taskID uint8, events uint16) uint16 {
		if events&eventBlinkA != 0 {
			ledA = !ledA
			logger.Info("led toggled", "led", "A", "on", ledA)
			k.Timers.StartTimer(taskID, eventBlinkA, uint32(periodA.Milliseconds()))
		}
		return 0
	}); err != nil {
		logger.Error("failed to register task", "task", "blinkA", "error", err)
		os.Exit(1)
	}

	ledB := false
	if err := k.RegisterTask(1, func(taskID uint8, events uint16) uint16 {
		if events&eventBlinkB != 0 {
			ledB = !ledB
			logger.Info("led toggled", "led", "B", "on", ledB)
			k.Timers.StartTimer(taskID, eventBlinkB, uint32(periodB.Milliseconds()))
		}
		return 0
	}); err != nil {
		logger.Error("failed to register task", "task", "blinkB", "error", err)
		os.Exit(1)
	}

	if err := k.RegisterTask(2, func(taskID uint8, events uint16) uint16 {
		if events&eventButton != 0 {
			logger.Info("button pressed")
		}
		return 0
	}); err != nil {
		logger.Error("failed to register task", "task", "button", "error", err)
		os.Exit(1)
	}

	k.Timers.StartTimer(0, eventBlinkA, uint32(periodA.Milliseconds()))
	k.Timers.StartTimer(1, eventBlinkB, uint32(periodB.Milliseconds()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Real hardware delivers a button press through a GPIO EXTI interrupt
	// calling osal_set_event directly; here SIGUSR1 plays that role, so
	// the only thing this "interrupt" does is set an event bit.
	buttonCh := make(chan os.Signal, 1)
	signal.Notify(buttonCh, syscall.SIGUSR1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-buttonCh:
				if err := k.SetEvent(2, eventButton); err != nil {
					logger.Error("failed to set button event", "error", err)
				}
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		k.Stop()
		cancel()
	}()

	fmt.Printf("oal-blinkd running (pid %d)\n", os.Getpid())
	fmt.Printf("send SIGUSR1 (kill -USR1 %d) to simulate a button press\n", os.Getpid())
	fmt.Println("press Ctrl+C to stop")

	if err := k.Run(ctx); err != nil {
		logger.Error("dispatch loop exited with error", "error", err)
		os.Exit(1)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package signalmarker

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// CrashSignals are the signals Install subscribes to.
var CrashSignals = []os.Signal{
	unix.SIGABRT,
	unix.SIGSEGV,
	unix.SIGBUS,
	unix.SIGILL,
	unix.SIGTRAP,
	unix.SIGFPE,
}

var signalNames = map[int32]string{
	int32(unix.SIGABRT): "SIGABRT",
	int32(unix.SIGSEGV): "SIGSEGV",
	int32(unix.SIGBUS):  "SIGBUS",
	int32(unix.SIGILL):  "SIGILL",
	int32(unix.SIGTRAP): "SIGTRAP",
	int32(unix.SIGFPE):  "SIGFPE",
}

// Handler owns the preallocated state used on signal delivery.
type Handler struct {
	// path is the marker path with a trailing NUL, ready for openat.
	path []byte
	// pathString backs platforms whose open call takes a Go string.
	pathString string

	buffer    [Size]byte
	timestamp unix.Timespec

	signals  chan os.Signal
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// reraise delivers the signal again after the default disposition
	// has been restored. Replaced in tests.
	reraise func(syscall.Signal)
}

var (
	installMutex sync.Mutex
	installed    *Handler
)

// Install subscribes to CrashSignals and arranges for the marker at
// path to be written when one arrives. After writing, the signal's
// default disposition is restored and the signal is raised again so
// the process terminates the normal way and other observers still see
// it. Only one handler is active per process: while it is installed,
// later calls return it and ignore path.
func Install(path string) (*Handler, error) {
	installMutex.Lock()
	defer installMutex.Unlock()

	if installed != nil {
		return installed, nil
	}
	installed = newHandler(path, raise)
	installed.start(CrashSignals...)
	return installed, nil
}

func newHandler(path string, reraise func(syscall.Signal)) *Handler {
	terminated := make([]byte, len(path)+1)
	copy(terminated, path)
	return &Handler{
		path:       terminated,
		pathString: path,
		signals:    make(chan os.Signal, 1),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		reraise:    reraise,
	}
}

func (handler *Handler) start(signals ...os.Signal) {
	signal.Notify(handler.signals, signals...)
	go handler.loop()
}

// Stop unsubscribes from the crash signals and waits for the delivery
// goroutine to exit. A later Install creates a fresh handler.
func (handler *Handler) Stop() {
	handler.stopOnce.Do(func() {
		signal.Stop(handler.signals)
		close(handler.done)
	})
	<-handler.stopped

	installMutex.Lock()
	if installed == handler {
		installed = nil
	}
	installMutex.Unlock()
}

// Path returns the marker file path.
func (handler *Handler) Path() string {
	return handler.pathString
}

func (handler *Handler) loop() {
	defer close(handler.stopped)
	for {
		select {
		case <-handler.done:
			return
		case received := <-handler.signals:
			number, ok := received.(syscall.Signal)
			if !ok {
				continue
			}
			handler.mark(number)
			signal.Reset(received)
			handler.reraise(number)
			return
		}
	}
}

// mark writes the marker file. Errors are ignored: there is nothing
// useful to do with them while the process is going down.
func (handler *Handler) mark(number syscall.Signal) {
	var milliseconds int64
	if unix.ClockGettime(unix.CLOCK_REALTIME, &handler.timestamp) == nil {
		milliseconds = int64(handler.timestamp.Sec)*1000 + int64(handler.timestamp.Nsec)/1_000_000
	}
	encodeInto(&handler.buffer, int32(number), milliseconds)

	fd, err := handler.open()
	if err != nil {
		return
	}
	unix.Write(fd, handler.buffer[:])
	unix.Fsync(fd)
	unix.Close(fd)
}

func raise(number syscall.Signal) {
	unix.Kill(unix.Getpid(), number)
}

//go:build !windows

// Package stderr captures output that native audio libraries (ALSA, CoreAudio
// backends) write directly to file descriptor 2, bypassing os.Stderr.
// Captured lines go to the log instead of corrupting the terminal.
package stderr

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

var (
	origStderr = -1
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	done       chan struct{}
)

// Start begins capturing stderr output into log.
// Must be called before the audio device is opened.
// On error the program can continue; output then goes to the real stderr.
func Start(log zerolog.Logger) error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := redirect(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		_ = unix.Close(origStderr)
		origStderr = -1
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	done = make(chan struct{})

	go func() {
		defer close(done)
		forward(pipeRead, log.With().Str("component", "stderr").Logger())
	}()
	return nil
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
func WriteOriginal(msg string) {
	if origStderr >= 0 {
		_, _ = unix.Write(origStderr, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr.
func Stop() {
	if !started {
		return
	}

	_ = redirect(origStderr, int(os.Stderr.Fd()))
	_ = unix.Close(origStderr)
	origStderr = -1

	pipeWrite.Close()
	<-done
	pipeRead.Close()
	started = false
}

package player

import (
	"context"
	"sync"
)

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdVolume
)

type command struct {
	kind  commandKind
	url   string
	level int
}

// mailbox is an unbounded FIFO of commands with a wakeup signal.
// Senders never block; the worker drains everything queued in one go.
type mailbox struct {
	mu     sync.Mutex
	queue  []command
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(c command) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// poll returns and removes every queued command, in send order.
func (m *mailbox) poll() []command {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil
	}
	cmds := m.queue
	m.queue = nil
	return cmds
}

// wait blocks until at least one command is queued or ctx is done.
func (m *mailbox) wait(ctx context.Context) ([]command, bool) {
	for {
		if cmds := m.poll(); len(cmds) > 0 {
			return cmds, true
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// signal fires after a push. It may fire with nothing queued.
func (m *mailbox) signal() <-chan struct{} {
	return m.notify
}

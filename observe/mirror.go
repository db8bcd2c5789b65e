// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Mirror is the observer side of one node. The node's session writes
// its output to the mirror, which keeps recent history and forwards a
// copy to every attached observer. Observers never slow the session:
// one whose queue fills is dropped.
type Mirror struct {
	node    int
	history *RingBuffer
	logger  *slog.Logger

	// mutex orders history updates against subscriptions so a new
	// observer sees each byte exactly once, in history or live.
	mutex     sync.Mutex
	metadata  Metadata
	observers map[*observer]struct{}
}

type observer struct {
	frames chan Message
	gone   chan struct{}
	once   sync.Once
	slow   atomic.Bool
}

func (o *observer) drop() {
	o.once.Do(func() { close(o.gone) })
}

// Write records p and forwards it to observers. It always reports
// success.
func (m *Mirror) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := make([]byte, len(p))
	copy(data, p)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.history.Write(data)
	m.broadcastLocked(NewDataMessage(data))
	return len(p), nil
}

// Connect marks the node busy with a new caller. History from the
// previous caller is discarded.
func (m *Mirror) Connect(remote string, width, height int, connectedAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.history.Reset()
	m.metadata = Metadata{
		Node:        m.node,
		Remote:      remote,
		Width:       width,
		Height:      height,
		ConnectedAt: connectedAt,
	}
	m.publishMetadataLocked()
}

// SetUser records the handle of the caller once they have logged on.
func (m *Mirror) SetUser(name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.metadata.User = name
	m.publishMetadataLocked()
}

// Resize records a new screen size and tells observers.
func (m *Mirror) Resize(width, height int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.metadata.Width == width && m.metadata.Height == height {
		return
	}
	m.metadata.Width, m.metadata.Height = width, height
	m.broadcastLocked(NewResizeMessage(uint16(width), uint16(height)))
}

// Disconnect marks the node idle. The last caller's output stays in
// history until the next [Mirror.Connect].
func (m *Mirror) Disconnect() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.metadata = Metadata{Node: m.node, Width: m.metadata.Width, Height: m.metadata.Height}
	m.publishMetadataLocked()
}

// Metadata returns the current node description.
func (m *Mirror) Metadata() Metadata {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.metadata
}

// Observers returns how many observers are attached.
func (m *Mirror) Observers() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.observers)
}

func (m *Mirror) publishMetadataLocked() {
	message, err := NewMetadataMessage(m.metadata)
	if err != nil {
		m.logger.Error("encoding observer metadata", "error", err)
		return
	}
	m.broadcastLocked(message)
}

func (m *Mirror) broadcastLocked(message Message) {
	for watcher := range m.observers {
		select {
		case watcher.frames <- message:
		default:
			watcher.slow.Store(true)
			watcher.drop()
			delete(m.observers, watcher)
		}
	}
}

// subscribe registers an observer and returns the frames that bring it
// up to date: Metadata then History.
func (m *Mirror) subscribe(compression Compression) (*observer, []Message, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	metadata, err := NewMetadataMessage(m.metadata)
	if err != nil {
		return nil, nil, err
	}
	snapshot, _ := m.history.Snapshot()
	payload, err := EncodeHistory(snapshot, compression)
	if err != nil {
		return nil, nil, err
	}
	watcher := &observer{
		frames: make(chan Message, observerQueueLength),
		gone:   make(chan struct{}),
	}
	m.observers[watcher] = struct{}{}
	return watcher, []Message{metadata, NewHistoryMessage(payload)}, nil
}

func (m *Mirror) unsubscribe(watcher *observer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.observers, watcher)
	watcher.drop()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// observerQueueLength is how many frames may wait for one observer
// before it is considered too slow and dropped.
const observerQueueLength = 256

// attachTimeout bounds how long a new connection may take to send its
// attach frame.
const attachTimeout = 10 * time.Second

// HubConfig configures a [Hub].
type HubConfig struct {
	// HistoryBytes is the per-node ring capacity. Zero selects
	// [DefaultHistoryBytes].
	HistoryBytes int

	// Compression is applied to history frames.
	Compression Compression

	// AuthorizePeer, when set, is called with the uid of each
	// connecting observer on platforms that report it. Returning false
	// refuses the attach. Where the uid is unavailable the socket's
	// file mode is the only gate.
	AuthorizePeer func(uid int) bool

	Logger *slog.Logger
}

// Hub holds the mirrors of every node and serves them to observers.
type Hub struct {
	config HubConfig
	logger *slog.Logger

	mutex   sync.Mutex
	mirrors map[int]*Mirror
}

// NewHub returns an empty hub. Mirrors are created by [Hub.Mirror].
func NewHub(config HubConfig) *Hub {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		config:  config,
		logger:  logger,
		mirrors: make(map[int]*Mirror),
	}
}

// Mirror returns the mirror for node, creating it on first use.
func (h *Hub) Mirror(node int) *Mirror {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	mirror, ok := h.mirrors[node]
	if !ok {
		mirror = &Mirror{
			node:      node,
			history:   NewRingBuffer(h.config.HistoryBytes),
			logger:    h.logger.With("node", node),
			metadata:  Metadata{Node: node},
			observers: make(map[*observer]struct{}),
		}
		h.mirrors[node] = mirror
	}
	return mirror
}

// Nodes returns the node numbers that have mirrors, in order.
func (h *Hub) Nodes() []int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	nodes := make([]int, 0, len(h.mirrors))
	for node := range h.mirrors {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	return nodes
}

func (h *Hub) lookup(node int) (*Mirror, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	mirror, ok := h.mirrors[node]
	return mirror, ok
}

// Listen creates the observer socket at socketPath, replacing a stale
// socket left by an earlier run. The socket is readable and writable by
// its owner and group only.
func Listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("creating observe socket directory: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing existing observe socket: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("creating observe socket at %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0660); err != nil {
		listener.Close()
		return nil, fmt.Errorf("setting observe socket permissions: %w", err)
	}
	return listener, nil
}

// Serve accepts observers until ctx ends, then closes the listener and
// every observer connection and returns nil. Each observer sends an
// attach frame naming a node; the hub answers with the node's Metadata
// and History, then streams live Data and Resize frames.
func (h *Hub) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting observer: %w", err)
		}
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			h.handle(ctx, conn)
		}()
	}
}

func (h *Hub) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if uid, ok := peerUID(conn); ok {
		if h.config.AuthorizePeer != nil && !h.config.AuthorizePeer(uid) {
			h.logger.Warn("observer refused", "uid", uid)
			WriteMessage(conn, NewErrorMessage(fmt.Sprintf("uid %d may not observe", uid)))
			return
		}
	}

	conn.SetDeadline(time.Now().Add(attachTimeout))
	request, err := ReadMessage(conn)
	if err != nil {
		h.logger.Debug("observer went away before attaching", "error", err)
		return
	}
	if request.Type != MessageTypeAttach {
		WriteMessage(conn, NewErrorMessage(fmt.Sprintf("expected attach frame, got type 0x%02x", request.Type)))
		return
	}
	node, err := ParseAttachPayload(request.Payload)
	if err != nil {
		WriteMessage(conn, NewErrorMessage(err.Error()))
		return
	}
	mirror, ok := h.lookup(node)
	if !ok {
		WriteMessage(conn, NewErrorMessage(fmt.Sprintf("node %d does not exist", node)))
		return
	}
	conn.SetDeadline(time.Time{})

	watcher, greeting, err := mirror.subscribe(h.config.Compression)
	if err != nil {
		h.logger.Error("preparing observer greeting", "node", node, "error", err)
		WriteMessage(conn, NewErrorMessage("internal error"))
		return
	}
	defer mirror.unsubscribe(watcher)
	mirror.logger.Info("observer attached", "observers", mirror.Observers())

	// Observers send nothing after attaching; a read returning means
	// the peer hung up.
	go func() {
		var discard [64]byte
		for {
			if _, err := conn.Read(discard[:]); err != nil {
				watcher.drop()
				return
			}
		}
	}()

	for _, message := range greeting {
		if err := WriteMessage(conn, message); err != nil {
			return
		}
	}
	for {
		select {
		case message := <-watcher.frames:
			if err := WriteMessage(conn, message); err != nil {
				mirror.logger.Debug("observer write failed", "error", err)
				return
			}
		case <-watcher.gone:
			if watcher.slow.Load() {
				mirror.logger.Warn("dropped slow observer")
			} else {
				mirror.logger.Info("observer detached")
			}
			return
		}
	}
}

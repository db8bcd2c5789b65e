// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import "sync"

// Nodes hands out node numbers 1 through count. It is safe for
// concurrent use.
type Nodes struct {
	mutex sync.Mutex
	busy  []bool
}

// NewNodes returns an allocator for count nodes.
func NewNodes(count int) *Nodes {
	return &Nodes{busy: make([]bool, count)}
}

// Acquire takes the lowest free node. It returns false when every node
// is in use.
func (n *Nodes) Acquire() (int, bool) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for index, busy := range n.busy {
		if !busy {
			n.busy[index] = true
			return index + 1, true
		}
	}
	return 0, false
}

// Release frees node. Releasing a free or unknown node does nothing.
func (n *Nodes) Release(node int) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if node >= 1 && node <= len(n.busy) {
		n.busy[node-1] = false
	}
}

// InUse returns how many nodes are taken.
func (n *Nodes) InUse() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	count := 0
	for _, busy := range n.busy {
		if busy {
			count++
		}
	}
	return count
}

// Count returns the number of nodes.
func (n *Nodes) Count() int {
	return len(n.busy)
}

// Copyright (c) 2024-2026, The LoRaSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package mesh

import (
	. "github.com/meshsim/lorasim/types"
)

// DefaultTxQueueLen is the default bound of a radio's transmit queue.
const DefaultTxQueueLen = 16

// TxQueue is a bounded FIFO of packets pending transmission. It holds
// ownership of every packet it contains. It is not safe for concurrent use;
// all access must go through the radio's dispatch point.
type TxQueue struct {
	packets []*Packet
	maxLen  int
}

func NewTxQueue(maxLen int) *TxQueue {
	if maxLen <= 0 {
		maxLen = DefaultTxQueueLen
	}
	return &TxQueue{
		packets: make([]*Packet, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Enqueue appends p to the queue. On success ownership of p transfers to
// the queue. Returns false if the queue is full; ownership then stays with
// the caller.
func (q *TxQueue) Enqueue(p *Packet) bool {
	if len(q.packets) >= q.maxLen {
		return false
	}
	q.packets = append(q.packets, p)
	return true
}

// Front returns the head of the queue without removing it, or nil if empty.
func (q *TxQueue) Front() *Packet {
	if len(q.packets) == 0 {
		return nil
	}
	return q.packets[0]
}

// Dequeue removes and returns the head of the queue, or nil if empty.
// Ownership of the returned packet transfers to the caller.
func (q *TxQueue) Dequeue() *Packet {
	if len(q.packets) == 0 {
		return nil
	}
	p := q.packets[0]
	q.packets = q.packets[1:]
	return p
}

// Remove removes and returns the queued packet matching (from, id), or nil
// if no such packet is queued. Remaining packets keep their relative order.
// Ownership of the returned packet transfers to the caller.
func (q *TxQueue) Remove(from NodeId, id PacketId) *Packet {
	for i, p := range q.packets {
		if p.From == from && p.Id == id {
			q.packets = append(q.packets[:i], q.packets[i+1:]...)
			return p
		}
	}
	return nil
}

func (q *TxQueue) IsEmpty() bool {
	return len(q.packets) == 0
}

func (q *TxQueue) Len() int {
	return len(q.packets)
}

// Free returns the number of free slots left in the queue.
func (q *TxQueue) Free() int {
	return q.maxLen - len(q.packets)
}

// MaxLen returns the queue capacity.
func (q *TxQueue) MaxLen() int {
	return q.maxLen
}

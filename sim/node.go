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

package sim

import (
	"sync"

	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/mesh"
	"github.com/meshsim/lorasim/radio"
	. "github.com/meshsim/lorasim/types"
)

type packetKey struct {
	From NodeId
	Id   PacketId
}

// Node is one simulated mesh node: a radio plus the minimal application
// behavior above it (receive logging, optional flood relay).
type Node struct {
	Id    NodeId
	Radio *radio.SimRadio

	pool       *mesh.Pool
	floodRelay bool

	mu         sync.Mutex
	seen       map[packetKey]struct{}
	nextPktId  PacketId
	rxDelivers uint64
	relayed    uint64
}

func newNode(id NodeId, pool *mesh.Pool, floodRelay bool, pktIdStart PacketId) *Node {
	return &Node{
		Id:         id,
		pool:       pool,
		floodRelay: floodRelay,
		seen:       map[packetKey]struct{}{},
		nextPktId:  pktIdStart,
	}
}

// NextPacketId allocates the next packet id originated by this node.
func (nd *Node) NextPacketId() PacketId {
	nd.mu.Lock()
	defer nd.mu.Unlock()
	nd.nextPktId++
	return nd.nextPktId
}

// markSeen records (from, id) in the flood dedupe set. Returns false if it
// was already known.
func (nd *Node) markSeen(from NodeId, id PacketId) bool {
	nd.mu.Lock()
	defer nd.mu.Unlock()
	k := packetKey{From: from, Id: id}
	if _, ok := nd.seen[k]; ok {
		return false
	}
	nd.seen[k] = struct{}{}
	return true
}

// RxDelivered returns the number of packets delivered up to this node.
func (nd *Node) RxDelivered() uint64 {
	nd.mu.Lock()
	defer nd.mu.Unlock()
	return nd.rxDelivers
}

// Relayed returns the number of packets this node rebroadcast.
func (nd *Node) Relayed() uint64 {
	nd.mu.Lock()
	defer nd.mu.Unlock()
	return nd.relayed
}

// Deliver implements radio.Receiver: the node's application layer. The
// delivered copy is consumed here; with flood relay enabled an unseen
// packet with hops left is rebroadcast with a decremented hop limit,
// keeping its received-signal metadata so the radio picks the SNR-weighted
// delay.
func (nd *Node) Deliver(p *mesh.Packet) {
	nd.mu.Lock()
	nd.rxDelivers++
	nd.mu.Unlock()

	logger.Debugf("node %d: delivered %v", nd.Id, p)

	if nd.floodRelay && p.HopLimit > 0 && p.From != nd.Id && nd.markSeen(p.From, p.Id) {
		rp := nd.pool.AllocCopy(p)
		rp.HopLimit--
		if err := nd.Radio.Send(rp); err != nil {
			logger.Warnf("node %d: relay dropped: %v", nd.Id, err)
		} else {
			nd.mu.Lock()
			nd.relayed++
			nd.mu.Unlock()
		}
	}

	nd.pool.Release(p)
}

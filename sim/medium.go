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

	"github.com/simonlingoogle/go-simplelogger"

	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/mesh"
	"github.com/meshsim/lorasim/prng"
	"github.com/meshsim/lorasim/radio"
	"github.com/meshsim/lorasim/wire"
	. "github.com/meshsim/lorasim/types"
)

// Simulated link quality ranges assigned to delivered frames. The lower
// bounds sit above the zero/zero marker reserved for locally originated
// packets.
const (
	linkSnrLow   DbValue = -10.0
	linkSnrHigh  DbValue = 8.0
	linkRssiLow  DbValue = -115.0
	linkRssiHigh DbValue = -60.0
)

// MediumStats counts what happened on the shared channel.
type MediumStats struct {
	Forwarded      uint64 // frames handed over by radios
	Deliveries     uint64 // receptions started on a destination radio
	CollisionDrops uint64 // frames lost because the destination was mid-reception
	TxDeafDrops    uint64 // frames lost because the destination was transmitting
}

// Medium is the shared simulated channel: a frame a radio hands to its
// simulator transport is unpacked and started as a reception on every other
// radio that can currently hear it.
type Medium struct {
	mu     sync.Mutex
	pool   *mesh.Pool
	radios map[NodeId]*radio.SimRadio
	stats  MediumStats
}

func NewMedium(pool *mesh.Pool) *Medium {
	return &Medium{
		pool:   pool,
		radios: map[NodeId]*radio.SimRadio{},
	}
}

// AddRadio attaches a radio to the channel.
func (m *Medium) AddRadio(r *radio.SimRadio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	simplelogger.AssertNil(m.radios[r.NodeId()], "node %d already on medium", r.NodeId())
	m.radios[r.NodeId()] = r
}

// Endpoint returns the per-node transport endpoint for src, implementing
// radio.Transport.
func (m *Medium) Endpoint(src NodeId) radio.Transport {
	return &mediumEndpoint{m: m, src: src}
}

// Stats returns a copy of the medium counters.
func (m *Medium) Stats() MediumStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

type mediumEndpoint struct {
	m   *Medium
	src NodeId
}

func (ep *mediumEndpoint) ForwardToSimulator(p *mesh.Packet) {
	ep.m.forward(ep.src, p)
}

// forward takes ownership of the framed packet p, reconstructs the on-air
// packet from its envelope and starts a reception on every other radio that
// is neither transmitting (half-duplex, deaf while sending) nor already
// mid-reception (collision, the later frame is assumed lost to that
// receiver). Forwards are serialized, so the deliverability check and the
// reception start are atomic with respect to other forwards.
func (m *Medium) forward(src NodeId, p *mesh.Packet) {
	var env wire.Envelope
	n := env.Deserialize(p.Payload)
	simplelogger.AssertTrue(n > 0, "node %d forwarded an invalid envelope", src)

	onAir := mesh.Packet{
		From:     p.From,
		To:       p.To,
		Id:       p.Id,
		HopLimit: p.HopLimit,
		Port:     env.Port,
		Payload:  env.Data,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Forwarded++

	for id, dst := range m.radios {
		if id == src {
			continue
		}
		if dst.IsSending() {
			m.stats.TxDeafDrops++
			continue
		}
		if dst.IsReceiving() {
			logger.Debugf("medium: collision at node %d, frame from %d lost", dst.NodeId(), src)
			m.stats.CollisionDrops++
			continue
		}

		rp := m.pool.AllocCopy(&onAir)
		rp.RxSnr = linkSnrLow + (linkSnrHigh-linkSnrLow)*prng.NewUnitRandom()
		rp.RxRssi = linkRssiLow + (linkRssiHigh-linkRssiLow)*prng.NewUnitRandom()
		m.stats.Deliveries++
		dst.StartReceive(rp)
	}

	m.pool.Release(p)
}

// carrierMonitor is the channel-activity policy the simulation plugs into
// each radio: a reception in progress is always treated as mid-frame, and
// channel activity sensing is left to the Medium's delivery gating.
type carrierMonitor struct{}

func (carrierMonitor) IsChannelActive() bool     { return false }
func (carrierMonitor) IsActivelyReceiving() bool { return true }

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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	. "github.com/meshsim/lorasim/types"
)

func newTestSimulation(t *testing.T, cfg *Config) (*Simulation, *clock.Mock) {
	if cfg == nil {
		cfg = DefaultConfig()
		cfg.Seed = 1
	}
	mk := clock.NewMock()
	s, err := New(cfg, mk)
	if err != nil {
		t.Fatal(err)
	}
	return s, mk
}

func TestSimulation_New(t *testing.T) {
	s, _ := newTestSimulation(t, nil)
	assert.Equal(t, []NodeId{1, 2, 3}, s.NodeIds())

	_, err := s.Node(4)
	assert.NotNil(t, err)
	nd, err := s.Node(2)
	assert.Nil(t, err)
	assert.Equal(t, NodeId(2), nd.Id)
}

func TestSimulation_NewRejectsZeroNodes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumNodes = 0
	_, err := New(cfg, clock.NewMock())
	assert.NotNil(t, err)
}

func TestSimulation_Broadcast(t *testing.T) {
	s, mk := newTestSimulation(t, nil)

	pktId, err := s.Send(1, PortText, []byte("hello mesh"))
	assert.Nil(t, err)
	assert.True(t, pktId > 0)

	// at send time nothing is on the air yet
	assert.Equal(t, uint64(0), s.MediumStats().Forwarded)

	// run well past all delays, transmissions and relays
	mk.Add(60 * time.Second)

	ms := s.MediumStats()
	assert.True(t, ms.Forwarded >= 1)
	// the first transmission finds every other radio idle
	assert.True(t, ms.Deliveries >= 2)

	for _, id := range []NodeId{2, 3} {
		nd, _ := s.Node(id)
		assert.True(t, nd.RxDelivered() >= 1, "node %d never got the broadcast", id)
	}

	// every packet handle went back to the pool
	assert.Equal(t, 0, s.Pool().Live())
}

func TestSimulation_FloodRelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.NumNodes = 4
	s, mk := newTestSimulation(t, cfg)

	_, err := s.Send(1, PortText, []byte("flood"))
	assert.Nil(t, err)
	mk.Add(120 * time.Second)

	relayed := uint64(0)
	for _, id := range s.NodeIds() {
		nd, _ := s.Node(id)
		relayed += nd.Relayed()
	}
	assert.True(t, relayed >= 1, "flood relay never rebroadcast")

	// dedupe keeps the flood finite: no node relays the same packet twice,
	// so the relay count is bounded by the number of hearing nodes
	assert.True(t, relayed <= 3)
	assert.Equal(t, 0, s.Pool().Live())
}

func TestSimulation_NoRelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.FloodRelay = false
	s, mk := newTestSimulation(t, cfg)

	_, err := s.Send(1, PortText, []byte("once"))
	assert.Nil(t, err)
	mk.Add(60 * time.Second)

	for _, id := range s.NodeIds() {
		nd, _ := s.Node(id)
		assert.Equal(t, uint64(0), nd.Relayed())
	}
	assert.Equal(t, uint64(1), s.MediumStats().Forwarded)
	assert.Equal(t, 0, s.Pool().Live())
}

func TestSimulation_Cancel(t *testing.T) {
	s, mk := newTestSimulation(t, nil)

	pktId, err := s.Send(1, PortText, []byte("never mind"))
	assert.Nil(t, err)

	// the collision-avoidance delay has not elapsed yet
	ok, err := s.Cancel(1, pktId)
	assert.Nil(t, err)
	assert.True(t, ok)

	ok, err = s.Cancel(1, pktId)
	assert.Nil(t, err)
	assert.False(t, ok)

	mk.Add(60 * time.Second)
	assert.Equal(t, uint64(0), s.MediumStats().Forwarded)
	assert.Equal(t, 0, s.Pool().Live())

	_, err = s.Cancel(9, pktId)
	assert.NotNil(t, err)
}

func TestSimulation_QueueStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.TxQueueLen = 4
	s, _ := newTestSimulation(t, cfg)

	st, err := s.QueueStatus(1)
	assert.Nil(t, err)
	assert.Equal(t, 4, st.MaxLen)
	assert.Equal(t, 4, st.Free)

	_, err = s.Send(1, PortText, []byte("a"))
	assert.Nil(t, err)
	st, _ = s.QueueStatus(1)
	assert.Equal(t, 3, st.Free)

	_, err = s.QueueStatus(42)
	assert.NotNil(t, err)
}

func TestSimulation_SendUnknownNode(t *testing.T) {
	s, _ := newTestSimulation(t, nil)
	_, err := s.Send(99, PortText, []byte("x"))
	assert.NotNil(t, err)
}

func TestSimulation_Elapsed(t *testing.T) {
	s, mk := newTestSimulation(t, nil)
	assert.Equal(t, time.Duration(0), s.Elapsed())
	mk.Add(5 * time.Second)
	assert.Equal(t, 5*time.Second, s.Elapsed())
}

func TestSimulation_Reports(t *testing.T) {
	s, mk := newTestSimulation(t, nil)
	_, _ = s.Send(1, PortText, []byte("report me"))
	mk.Add(60 * time.Second)

	var counters strings.Builder
	s.WriteCountersReport(&counters)
	assert.Contains(t, counters.String(), "txGood")
	assert.Contains(t, counters.String(), "medium:")
	assert.Contains(t, counters.String(), "pool:")

	var at strings.Builder
	s.WriteAirtimeReport(&at)
	assert.Contains(t, at.String(), "node 1:")
	assert.Contains(t, at.String(), "utilization")
}

func TestSimulation_PcapCapture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.PcapFile = filepath.Join(t.TempDir(), "sim.pcap")
	s, mk := newTestSimulation(t, cfg)

	_, err := s.Send(1, PortText, []byte("captured"))
	assert.Nil(t, err)
	mk.Add(60 * time.Second)
	s.Stop()

	info, err := os.Stat(cfg.PcapFile)
	if err != nil {
		t.Fatal(err)
	}
	// file header plus at least the one transmitted frame
	assert.True(t, info.Size() > 24)
}

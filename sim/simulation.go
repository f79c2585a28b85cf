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
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/meshsim/lorasim/airtime"
	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/mesh"
	"github.com/meshsim/lorasim/pcap"
	"github.com/meshsim/lorasim/prng"
	"github.com/meshsim/lorasim/radio"
	. "github.com/meshsim/lorasim/types"
)

// Simulation owns one shared channel with cfg.NumNodes radios on it, and
// exposes the operations the CLI drives.
type Simulation struct {
	cfg     *Config
	clk     clock.Clock
	start   time.Time
	pool    *mesh.Pool
	medium  *Medium
	capture *pcap.File
	nodes   map[NodeId]*Node
	trkrs   map[NodeId]*airtime.Tracker
}

// New builds a simulation from cfg. A nil clk selects the real clock;
// tests pass a clock.Mock.
func New(cfg *Config, clk clock.Clock) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.NumNodes < 1 {
		return nil, errors.Errorf("numNodes must be >= 1, got %d", cfg.NumNodes)
	}

	seed := prng.Init(cfg.Seed)
	logger.Infof("simulation seed: %d", seed)

	s := &Simulation{
		cfg:   cfg,
		clk:   clk,
		start: clk.Now(),
		pool:  mesh.NewPool(),
		nodes: map[NodeId]*Node{},
		trkrs: map[NodeId]*airtime.Tracker{},
	}
	s.medium = NewMedium(s.pool)

	if cfg.PcapFile != "" {
		capture, err := pcap.NewFile(cfg.PcapFile)
		if err != nil {
			return nil, errors.Wrapf(err, "opening pcap %s", cfg.PcapFile)
		}
		s.capture = capture
	}

	for i := 1; i <= cfg.NumNodes; i++ {
		id := NodeId(i)
		nd := newNode(id, s.pool, cfg.FloodRelay, PacketId(prng.NewPacketIdStart()))
		tr := airtime.NewTracker()

		nd.Radio = radio.New(
			&radio.Config{NodeId: id, TxQueueLen: cfg.TxQueueLen},
			radio.Deps{
				Clock:     clk,
				Pool:      s.pool,
				AirTime:   tr,
				Receiver:  nd,
				Transport: s.medium.Endpoint(id),
				Delay:     radio.NewContentionDelayPolicy(prng.NewRadioRandomSeed()),
				Monitor:   carrierMonitor{},
				Capture:   s.capture,
			})

		s.medium.AddRadio(nd.Radio)
		s.nodes[id] = nd
		s.trkrs[id] = tr
	}

	logger.Infof("simulation started: %d nodes, queue len %d, flood relay %v",
		cfg.NumNodes, cfg.TxQueueLen, cfg.FloodRelay)
	return s, nil
}

func (s *Simulation) node(id NodeId) (*Node, error) {
	nd, ok := s.nodes[id]
	if !ok {
		return nil, errors.Errorf("no such node: %d", id)
	}
	return nd, nil
}

// NodeIds returns all node ids, sorted.
func (s *Simulation) NodeIds() []NodeId {
	ids := make([]NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Send originates a broadcast packet with the given payload from node id.
// It returns the packet id usable with Cancel.
func (s *Simulation) Send(id NodeId, port PortNum, payload []byte) (PacketId, error) {
	nd, err := s.node(id)
	if err != nil {
		return 0, err
	}

	pktId := nd.NextPacketId()
	p := mesh.Packet{
		From:     id,
		To:       BroadcastNodeId,
		Id:       pktId,
		HopLimit: s.cfg.HopLimit,
		Port:     port,
		Payload:  payload,
		Variant:  mesh.PayloadDecoded,
	}
	nd.markSeen(id, pktId)

	if err := nd.Radio.Send(s.pool.AllocCopy(&p)); err != nil {
		return 0, err
	}
	return pktId, nil
}

// Cancel cancels a packet previously queued by node id, identified by its
// packet id. Returns true if the packet was still queued and got removed.
func (s *Simulation) Cancel(id NodeId, pktId PacketId) (bool, error) {
	nd, err := s.node(id)
	if err != nil {
		return false, err
	}
	return nd.Radio.CancelSending(id, pktId), nil
}

// QueueStatus returns the transmit-queue snapshot of node id.
func (s *Simulation) QueueStatus(id NodeId) (radio.QueueStatus, error) {
	nd, err := s.node(id)
	if err != nil {
		return radio.QueueStatus{}, err
	}
	return nd.Radio.GetQueueStatus(), nil
}

// Node returns the node with the given id, or an error.
func (s *Simulation) Node(id NodeId) (*Node, error) {
	return s.node(id)
}

// Pool returns the shared packet pool.
func (s *Simulation) Pool() *mesh.Pool {
	return s.pool
}

// MediumStats returns the shared channel counters.
func (s *Simulation) MediumStats() MediumStats {
	return s.medium.Stats()
}

// Elapsed returns the simulation time since start.
func (s *Simulation) Elapsed() time.Duration {
	return s.clk.Now().Sub(s.start)
}

// WriteCountersReport writes per-node radio counters to w.
func (s *Simulation) WriteCountersReport(w io.Writer) {
	fmt.Fprintf(w, "id\ttxGood\trxGood\tdrops\tcancelOk\tcancelFail\trearms\tdelivered\trelayed\n")
	for _, id := range s.NodeIds() {
		nd := s.nodes[id]
		c := nd.Radio.Stats()
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			id, c.TxGood, c.RxGood, c.TxQueueDrops, c.CancelOk, c.CancelFail,
			c.DelayRearms, nd.RxDelivered(), nd.Relayed())
	}
	ms := s.medium.Stats()
	fmt.Fprintf(w, "medium: forwarded %d, deliveries %d, collisions %d, tx-deaf %d\n",
		ms.Forwarded, ms.Deliveries, ms.CollisionDrops, ms.TxDeafDrops)
	fmt.Fprintf(w, "pool: allocated %d, released %d, live %d\n",
		s.pool.Allocated(), s.pool.Released(), s.pool.Live())
}

// WriteAirtimeReport writes per-node airtime utilization to w.
func (s *Simulation) WriteAirtimeReport(w io.Writer) {
	elapsed := s.Elapsed()
	for _, id := range s.NodeIds() {
		fmt.Fprintf(w, "node %d: ", id)
		s.trkrs[id].WriteReport(w, elapsed)
	}
}

// Stop finishes the simulation and closes the capture file, if any.
func (s *Simulation) Stop() {
	if s.capture != nil {
		_ = s.capture.Sync()
		_ = s.capture.Close()
		s.capture = nil
	}
	logger.Infof("simulation stopped after %v", s.Elapsed())
}

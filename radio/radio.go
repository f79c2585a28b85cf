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

// Package radio implements the transmit/receive scheduling core of a
// simulated half-duplex mesh radio: the collision-avoidance delay before
// transmitting, the send gate, the receive window, and the packet handoff
// between transmit queue, packet pool and the simulated physical layer.
//
// All "hardware" activity is modeled purely via timers on an injected
// clock. Timer completions and simulated interrupts are delivered through
// the single OnNotify dispatch point, serialized by a mutex, so queue and
// pool mutations never race. Collaborators (transport, upward receiver) are
// always called outside that mutex: they may call back into the radio.
package radio

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/meshsim/lorasim/airtime"
	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/mesh"
	"github.com/meshsim/lorasim/pcap"
	. "github.com/meshsim/lorasim/types"
	"github.com/meshsim/lorasim/wire"
)

// Notification is a hardware-style signal delivered into the radio's
// dispatch point.
type Notification uint8

const (
	NotifyTxComplete Notification = iota + 1
	NotifyRxComplete
	NotifyDelayComplete
)

func (n Notification) String() string {
	switch n {
	case NotifyTxComplete:
		return "tx-complete"
	case NotifyRxComplete:
		return "rx-complete"
	case NotifyDelayComplete:
		return "delay-complete"
	default:
		return "invalid"
	}
}

// postTxDelay is the minimal timer armed after a transmit completes, to
// pick up further queued work.
const postTxDelay = 1 * time.Millisecond

// Receiver accepts fully-owned packet copies delivered upward by the radio.
// The radio relinquishes interest after the call; the receiver must release
// the handle when done.
type Receiver interface {
	Deliver(p *mesh.Packet)
}

// Transport accepts outbound simulation envelopes. Ownership of the packet
// transfers with the call.
type Transport interface {
	ForwardToSimulator(p *mesh.Packet)
}

// QueueStatus is a point-in-time snapshot of the transmit queue.
type QueueStatus struct {
	Free   int
	MaxLen int
}

// Counters holds the radio's packet counters.
type Counters struct {
	TxGood       uint64
	RxGood       uint64
	TxQueueDrops uint64
	CancelOk     uint64
	CancelFail   uint64
	DelayRearms  uint64
}

type Config struct {
	NodeId     NodeId
	TxQueueLen int // 0 selects mesh.DefaultTxQueueLen
}

// Deps are the external collaborators of a radio. Pool, Receiver and
// Transport are required; the rest default when nil.
type Deps struct {
	Clock     clock.Clock
	Pool      *mesh.Pool
	AirTime   *airtime.Tracker
	Receiver  Receiver
	Transport Transport
	Delay     DelayPolicy
	Monitor   ChannelMonitor
	Capture   *pcap.File
}

// SimRadio is a single simulated half-duplex radio. One instance exists per
// simulated node; timer callbacks carry the instance explicitly.
type SimRadio struct {
	nodeId  NodeId
	clk     clock.Clock
	epoch   time.Time
	pool    *mesh.Pool
	txQueue *mesh.TxQueue
	airTime *airtime.Tracker
	delay   DelayPolicy
	monitor ChannelMonitor

	receiver  Receiver
	transport Transport
	capture   *pcap.File

	mu            dispatchMutex
	sendingPacket *mesh.Packet
	isReceiving   bool
	counters      Counters

	// Lock-free mirrors of the busy state, for queries from outside the
	// dispatch point (e.g. the shared medium deciding deliverability).
	busyTx atomic.Bool
	busyRx atomic.Bool
}

func New(cfg *Config, deps Deps) *SimRadio {
	logger.AssertNotNil(deps.Pool, "radio needs a packet pool")
	logger.AssertNotNil(deps.Receiver, "radio needs an upward receiver")
	logger.AssertNotNil(deps.Transport, "radio needs a simulated transport")

	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.AirTime == nil {
		deps.AirTime = airtime.NewTracker()
	}
	if deps.Delay == nil {
		deps.Delay = NewContentionDelayPolicy(0)
	}
	if deps.Monitor == nil {
		deps.Monitor = NopChannelMonitor{}
	}

	return &SimRadio{
		nodeId:    cfg.NodeId,
		clk:       deps.Clock,
		epoch:     deps.Clock.Now(),
		pool:      deps.Pool,
		txQueue:   mesh.NewTxQueue(cfg.TxQueueLen),
		airTime:   deps.AirTime,
		delay:     deps.Delay,
		monitor:   deps.Monitor,
		receiver:  deps.Receiver,
		transport: deps.Transport,
		capture:   deps.Capture,
	}
}

func (r *SimRadio) NodeId() NodeId {
	return r.nodeId
}

// IsSending reports whether a packet currently occupies the transmit slot.
func (r *SimRadio) IsSending() bool {
	return r.busyTx.Load()
}

// IsReceiving reports whether a simulated reception is in progress.
func (r *SimRadio) IsReceiving() bool {
	return r.busyRx.Load()
}

// Send enqueues p for transmission. Ownership of p transfers to this call:
// on success the queue holds it and a collision-avoidance delay is armed;
// on failure p is released and an error returned, with no timer armed.
func (r *SimRadio) Send(p *mesh.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Debugf("radio %d: enqueuing for send %v", r.nodeId, p)

	if !r.txQueue.Enqueue(p) {
		r.counters.TxQueueDrops++
		id := p.Id
		r.pool.Release(p)
		return errors.Errorf("radio %d: tx queue full, dropped packet 0x%x", r.nodeId, id)
	}

	// Delay before transmitting so that, if this packet is a response to a
	// packet just received, the other side has time to reconfigure its
	// radio, and so that concurrent senders desynchronize.
	r.setTransmitDelayLocked()
	return nil
}

// setTransmitDelayLocked arms the collision-avoidance timer based on the
// front of the transmit queue. With an empty queue this is a no-op.
func (r *SimRadio) setTransmitDelayLocked() {
	p := r.txQueue.Front()
	if p == nil {
		logger.Debugf("radio %d: tx queue empty, no delay armed", r.nodeId)
		return
	}

	var d time.Duration
	if p.IsLocal() {
		d = r.delay.TxDelay()
	} else {
		// The front packet was received over the air, so this transmission
		// is a reaction to it: scale the delay with its SNR.
		logger.Debugf("radio %d: rx_snr found, hop_limit=%d rx_snr=%.1f", r.nodeId, p.HopLimit, p.RxSnr)
		d = r.delay.TxDelaySnr(p.RxSnr)
	}
	r.armDelayLocked(d)
}

// armDelayLocked schedules a delay-complete notification after d. The timer
// has no external cancel; it always fires and current state is re-checked
// then.
func (r *SimRadio) armDelayLocked(d time.Duration) {
	r.clk.AfterFunc(d, func() {
		r.OnNotify(NotifyDelayComplete)
	})
}

// OnNotify is the single notification entry point of the radio. Calls are
// serialized; an unrecognized notification indicates the notification
// source violated its contract and aborts.
func (r *SimRadio) OnNotify(n Notification) {
	fwd := r.dispatch(n)
	if fwd != nil {
		// Hand the framed copy to the simulated transport outside the
		// dispatch point; the transport may call back into radios.
		r.transport.ForwardToSimulator(fwd)
	}
}

func (r *SimRadio) dispatch(n Notification) (fwd *mesh.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch n {
	case NotifyTxComplete:
		r.handleTransmitInterruptLocked()
		logger.Debugf("radio %d: tx complete, starting timer", r.nodeId)
		if !r.txQueue.IsEmpty() {
			r.armDelayLocked(postTxDelay)
		}
	case NotifyRxComplete:
		logger.Debugf("radio %d: rx complete", r.nodeId)
	case NotifyDelayComplete:
		logger.Debugf("radio %d: delay done", r.nodeId)
		fwd = r.handleDelayCompleteLocked()
	default:
		logger.Panicf("radio %d: unexpected notification %d", r.nodeId, n)
	}
	return fwd
}

// handleDelayCompleteLocked is the send gate: transmit the front packet if
// the channel allows it, otherwise restart the random delay. It returns the
// framed copy to forward to the simulated transport, or nil if nothing was
// sent.
func (r *SimRadio) handleDelayCompleteLocked() *mesh.Packet {
	if r.txQueue.IsEmpty() {
		return nil
	}

	if !r.canSendImmediatelyLocked() || r.monitor.IsChannelActive() {
		// Currently Rx/Tx-ing, or another frame is on the channel: restart
		// the random delay rather than trusting stale intent.
		r.counters.DelayRearms++
		r.setTransmitDelayLocked()
		return nil
	}

	txp := r.txQueue.Dequeue()
	logger.AssertNotNil(txp, "radio %d: non-empty tx queue dequeued nil", r.nodeId)

	r.sendingPacket = txp
	r.busyTx.Store(true)
	fwd := r.startSendLocked(txp)

	// Count the packet toward TX airtime utilization and model the time
	// the channel is busy sending.
	xmitMs := airtime.PacketTimeMs(txp.WireLength())
	r.airTime.Log(airtime.TX, xmitMs)
	r.clk.AfterFunc(time.Duration(xmitMs)*time.Millisecond, func() {
		r.OnNotify(NotifyTxComplete)
	})
	return fwd
}

// handleTransmitInterruptLocked completes the packet in the sending slot.
// The slot can be empty if the device was forced idle concurrently; that is
// a benign no-op.
func (r *SimRadio) handleTransmitInterruptLocked() {
	if r.sendingPacket != nil {
		r.completeSendingLocked()
	}
}

func (r *SimRadio) completeSendingLocked() {
	// Clear the sending slot before anything slow.
	p := r.sendingPacket
	r.sendingPacket = nil
	r.busyTx.Store(false)

	if p != nil {
		r.counters.TxGood++
		logger.Debugf("radio %d: completed sending %v", r.nodeId, p)
		r.pool.Release(p)
	}
}

// canSendImmediatelyLocked reports whether the radio could transmit right
// now, i.e. is neither transmitting nor partially through receiving a
// frame. Waiting on a frame mid-reception matters doubly: transmitting now
// would drop the inbound frame and garble the outbound one.
func (r *SimRadio) canSendImmediatelyLocked() bool {
	busyTx := r.sendingPacket != nil
	busyRx := r.isReceiving && r.monitor.IsActivelyReceiving()

	if busyTx {
		logger.Warnf("radio %d: can not send yet, busyTx", r.nodeId)
	}
	if busyRx {
		logger.Warnf("radio %d: can not send yet, busyRx", r.nodeId)
	}
	return !busyTx && !busyRx
}

// CancelSending attempts to cancel a previously queued packet. Returns true
// if a matching packet was found, removed and released. A packet already
// dequeued for sending can no longer be cancelled.
func (r *SimRadio) CancelSending(from NodeId, id PacketId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.txQueue.Remove(from, id)
	if p != nil {
		r.pool.Release(p)
		r.counters.CancelOk++
	} else {
		r.counters.CancelFail++
	}
	logger.Debugf("radio %d: cancelSending id=0x%x, removed=%v", r.nodeId, id, p != nil)
	return p != nil
}

// StartReceive begins the simulated reception of p. Ownership of p
// transfers to the radio; its handle is released when the receive window
// completes. Receptions must not nest.
func (r *SimRadio) StartReceive(p *mesh.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.AssertFalse(r.isReceiving, "radio %d: nested receive", r.nodeId)
	r.isReceiving = true
	r.busyRx.Store(true)

	// Model the time the channel is busy receiving, then complete.
	dur := airtime.PacketTime(p.WireLength())
	r.clk.AfterFunc(dur, func() {
		r.mu.Lock()
		mp := r.handleReceiveInterruptLocked(p)
		r.mu.Unlock()

		// Delivery does not block the radio further; the receiver owns mp
		// now and may call back into this radio.
		r.receiver.Deliver(mp)
	})
}

// handleReceiveInterruptLocked finishes a reception: logs RX airtime and
// returns a fresh decoded copy for upward delivery.
func (r *SimRadio) handleReceiveInterruptLocked(p *mesh.Packet) *mesh.Packet {
	logger.AssertTrue(r.isReceiving, "radio %d: receive interrupt with no receive in progress", r.nodeId)
	r.isReceiving = false
	r.busyRx.Store(false)

	// Recompute from the actually received length.
	xmitMs := airtime.PacketTimeMs(p.WireLength())

	mp := r.pool.AllocCopy(p)
	mp.Variant = mesh.PayloadDecoded

	logger.Debugf("radio %d: lora rx %v", r.nodeId, mp)

	r.airTime.Log(airtime.RX, xmitMs)
	r.counters.RxGood++
	r.pool.Release(p)
	return mp
}

// startSendLocked prepares the handoff to the simulated physical layer: a
// temporary copy is decoded, its payload wrapped into the fixed-capacity
// simulation envelope tagged with the original port, and the copy retagged
// as simulator transport. Queue/pool ownership of txp itself is not
// affected. The caller forwards the returned copy once outside the lock.
func (r *SimRadio) startSendLocked(txp *mesh.Packet) *mesh.Packet {
	logger.Debugf("radio %d: starting low level send %v", r.nodeId, txp)

	p := r.pool.AllocCopy(txp)
	p.Variant = mesh.PayloadDecoded

	env, err := wire.Pack(p.Port, p.Payload)
	if err != nil {
		logger.Warnf("radio %d: %v, sending empty payload", r.nodeId, err)
	}
	p.Payload = env.Serialize()
	p.Port = PortSimulator

	if r.capture != nil {
		us := uint64(r.clk.Now().Sub(r.epoch) / time.Microsecond)
		if err := r.capture.AppendFrame(pcap.Frame{
			Timestamp: us,
			Data:      p.Payload,
			Rssi:      float32(txp.RxRssi),
		}); err != nil {
			logger.Errorf("radio %d: pcap frame write failed: %v", r.nodeId, err)
		}
	}
	return p
}

// GetQueueStatus returns a snapshot of the transmit queue occupancy.
func (r *SimRadio) GetQueueStatus() QueueStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return QueueStatus{
		Free:   r.txQueue.Free(),
		MaxLen: r.txQueue.MaxLen(),
	}
}

// Stats returns a copy of the radio's counters.
func (r *SimRadio) Stats() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}

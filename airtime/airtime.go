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

// Package airtime accounts channel-occupied durations per direction, for
// duty-cycle bookkeeping of a half-duplex radio.
package airtime

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction of a logged airtime period.
type Direction uint8

const (
	TX Direction = iota
	RX
)

func (d Direction) String() string {
	switch d {
	case TX:
		return "TX"
	case RX:
		return "RX"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Modem timing model used to derive packet on-air time from its length.
// Values approximate a medium-range LoRa modem preset.
const (
	preambleTimeMs = 156  // fixed preamble + sync word time
	bitRateBps     = 5469 // effective payload bit rate
)

// PacketTimeMs computes the modeled on-air time in milliseconds for a frame
// of wireLen bytes (header included). Deterministic in wireLen.
func PacketTimeMs(wireLen int) uint32 {
	return preambleTimeMs + uint32(wireLen)*8*1000/bitRateBps
}

// PacketTime is PacketTimeMs as a time.Duration.
func PacketTime(wireLen int) time.Duration {
	return time.Duration(PacketTimeMs(wireLen)) * time.Millisecond
}

// Tracker receives duration-tagged log events for transmit/receive activity
// and keeps cumulative totals. Log is fire-and-forget for callers.
type Tracker struct {
	mu      sync.Mutex
	txMs    uint64
	rxMs    uint64
	txCount uint64
	rxCount uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Log records one channel-occupied period of durMs milliseconds.
func (t *Tracker) Log(dir Direction, durMs uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch dir {
	case TX:
		t.txMs += uint64(durMs)
		t.txCount++
	case RX:
		t.rxMs += uint64(durMs)
		t.rxCount++
	}
}

// TxTotalMs returns the cumulative transmit airtime in milliseconds.
func (t *Tracker) TxTotalMs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txMs
}

// RxTotalMs returns the cumulative receive airtime in milliseconds.
func (t *Tracker) RxTotalMs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rxMs
}

// Counts returns the number of logged TX and RX periods.
func (t *Tracker) Counts() (tx uint64, rx uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txCount, t.rxCount
}

// Utilization returns the fraction [0,1] of elapsed wall/simulation time the
// channel was occupied by this radio, in either direction.
func (t *Tracker) Utilization(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	t.mu.Lock()
	busy := time.Duration(t.txMs+t.rxMs) * time.Millisecond
	t.mu.Unlock()
	return float64(busy) / float64(elapsed)
}

// WriteReport writes a one-line human readable summary of the tracked
// airtime to w.
func (t *Tracker) WriteReport(w io.Writer, elapsed time.Duration) {
	t.mu.Lock()
	txMs, rxMs, txN, rxN := t.txMs, t.rxMs, t.txCount, t.rxCount
	t.mu.Unlock()

	util := 0.0
	if elapsed > 0 {
		util = float64(time.Duration(txMs+rxMs)*time.Millisecond) / float64(elapsed) * 100.0
	}
	fmt.Fprintf(w, "tx %d pkts / %d ms, rx %d pkts / %d ms, utilization %.2f%%\n",
		txN, txMs, rxN, rxMs, util)
}

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

// Package mesh defines the packet handle exchanged between the radio
// scheduling core, its transmit queue and the packet pool, and implements
// the pool and queue themselves.
package mesh

import (
	"encoding/hex"
	"fmt"

	. "github.com/meshsim/lorasim/types"
)

// PayloadVariant marks whether a packet payload is still raw/encoded wire
// bytes, or has been decoded for the local node.
type PayloadVariant uint8

const (
	PayloadEncoded PayloadVariant = iota
	PayloadDecoded
)

// PacketHeaderBytes is the number of on-air header bytes preceding the
// payload: dest(4) + sender(4) + id(4) + flags(1) + channel(1) +
// next-hop(1) + relay-node(1).
const PacketHeaderBytes = 16

// Packet is a single mesh packet handle. At any instant it is exclusively
// owned by exactly one of: the transmit queue, the radio's sending slot, or
// a transient local copy. Every handle obtained from a Pool must be released
// back to it exactly once.
type Packet struct {
	From     NodeId
	To       NodeId
	Id       PacketId
	HopLimit uint8

	// Received signal metadata. Both exactly zero means the packet was
	// generated locally and never travelled over the air: the radio noise
	// floor offsets guarantee a genuinely received packet is never at 0/0.
	RxSnr  DbValue
	RxRssi DbValue

	Port    PortNum
	Payload []byte
	Variant PayloadVariant
}

// IsLocal reports whether this packet was generated locally, as opposed to
// being (a reaction to) a packet received over the air.
func (p *Packet) IsLocal() bool {
	return p.RxSnr == 0 && p.RxRssi == 0
}

// WireLength returns the on-air length in bytes, header included.
func (p *Packet) WireLength() int {
	return len(p.Payload) + PacketHeaderBytes
}

func (p *Packet) String() string {
	paylStr := ""
	if len(p.Payload) > 0 {
		n := len(p.Payload)
		if n > 8 {
			n = 8
		}
		paylStr = fmt.Sprintf(",payl=%s", hex.EncodeToString(p.Payload[:n]))
	}
	return fmt.Sprintf("Pkt{from=%d,to=%d,id=0x%x,hop=%d,port=%d,snr=%.1f%s}",
		p.From, p.To, p.Id, p.HopLimit, p.Port, p.RxSnr, paylStr)
}

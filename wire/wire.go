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

// Package wire implements the fixed-capacity envelope that wraps an outgoing
// payload for transport to the simulator harness.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/meshsim/lorasim/logger"
	. "github.com/meshsim/lorasim/types"
)

// MaxPayloadBytes is the envelope payload capacity. A payload larger than
// this cannot be framed; truncating it would corrupt framing, so the caller
// must substitute an empty payload instead.
const MaxPayloadBytes = 237

// envelopeHeaderLen: port uint32 + size uint16, little-endian.
const envelopeHeaderLen = 6

// ErrPayloadTooLarge is returned by Pack when the payload exceeds
// MaxPayloadBytes.
var ErrPayloadTooLarge = errors.New("payload size is larger than envelope capacity")

// Envelope is the simulation transport container: the original application
// port plus the (copied) payload bytes.
type Envelope struct {
	Port PortNum
	Data []byte
}

// Pack builds an envelope for payload tagged with port. On
// ErrPayloadTooLarge the returned envelope is valid but carries an empty
// payload.
func Pack(port PortNum, payload []byte) (*Envelope, error) {
	e := &Envelope{Port: port}
	if len(payload) > MaxPayloadBytes {
		return e, ErrPayloadTooLarge
	}
	e.Data = make([]byte, len(payload))
	copy(e.Data, payload)
	return e, nil
}

// Serialize serializes this Envelope into []byte for the simulated
// transport.
func (e *Envelope) Serialize() []byte {
	logger.AssertTrue(len(e.Data) <= MaxPayloadBytes)

	msg := make([]byte, envelopeHeaderLen+len(e.Data))
	binary.LittleEndian.PutUint32(msg[:4], e.Port)
	binary.LittleEndian.PutUint16(msg[4:6], uint16(len(e.Data)))
	n := copy(msg[envelopeHeaderLen:], e.Data)
	logger.AssertTrue(n == len(e.Data))
	return msg
}

// Deserialize deserializes []byte envelope fields into e. It returns the
// number of bytes used from data, or 0 if the buffer does not contain one
// entire serialized envelope.
func (e *Envelope) Deserialize(data []byte) int {
	if len(data) < envelopeHeaderLen {
		return 0
	}
	e.Port = binary.LittleEndian.Uint32(data[:4])
	size := binary.LittleEndian.Uint16(data[4:6])
	if int(size) > MaxPayloadBytes || int(size) > len(data)-envelopeHeaderLen {
		return 0
	}
	e.Data = make([]byte, size)
	copy(e.Data, data[envelopeHeaderLen:envelopeHeaderLen+int(size)])
	return envelopeHeaderLen + int(size)
}

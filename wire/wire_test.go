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

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/meshsim/lorasim/types"
)

func TestPack(t *testing.T) {
	payload := []byte("test message")
	e, err := Pack(PortText, payload)
	assert.Nil(t, err)
	assert.Equal(t, PortText, e.Port)
	assert.Equal(t, payload, e.Data)

	// the envelope holds its own copy of the payload
	payload[0] = 'X'
	assert.Equal(t, byte('t'), e.Data[0])
}

func TestPack_PayloadTooLarge(t *testing.T) {
	e, err := Pack(PortText, bytes.Repeat([]byte{0xab}, MaxPayloadBytes+1))
	assert.Equal(t, ErrPayloadTooLarge, err)

	// the returned envelope is still usable, carrying an empty payload
	assert.NotNil(t, e)
	assert.Equal(t, PortText, e.Port)
	assert.Equal(t, 0, len(e.Data))
	assert.Equal(t, envelopeHeaderLen, len(e.Serialize()))
}

func TestPack_MaxPayload(t *testing.T) {
	e, err := Pack(PortSimulator, bytes.Repeat([]byte{0xcd}, MaxPayloadBytes))
	assert.Nil(t, err)
	assert.Equal(t, MaxPayloadBytes, len(e.Data))
}

func TestEnvelope_Serialize(t *testing.T) {
	e, err := Pack(0x12345678, []byte{0xaa, 0xbb})
	assert.Nil(t, err)

	msg := e.Serialize()
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12, 0x02, 0x00, 0xaa, 0xbb}, msg)
}

func TestEnvelope_Deserialize(t *testing.T) {
	e, err := Pack(PortRouting, []byte("payload bytes"))
	assert.Nil(t, err)
	msg := e.Serialize()

	var d Envelope
	assert.Equal(t, len(msg), d.Deserialize(msg))
	assert.Equal(t, e.Port, d.Port)
	assert.Equal(t, e.Data, d.Data)
}

func TestEnvelope_DeserializeTruncated(t *testing.T) {
	e, _ := Pack(PortText, []byte("hello"))
	msg := e.Serialize()

	var d Envelope
	assert.Equal(t, 0, d.Deserialize(msg[:len(msg)-1]))
	assert.Equal(t, 0, d.Deserialize(msg[:3]))
	assert.Equal(t, 0, d.Deserialize(nil))
}

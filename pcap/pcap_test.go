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

package pcap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func getFileSize(t *testing.T, filename string) int {
	info, err := os.Stat(filename)
	if err != nil {
		t.Fatal(err)
	}
	return int(info.Size())
}

func TestPcapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test.pcap")
	pcap, err := NewFile(pcapFilename)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = pcap.Close()
	}()

	err = pcap.Sync()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, pcapFileHeaderSize, getFileSize(t, pcapFilename))

	for i := 0; i < 10; i++ {
		frame := Frame{
			Timestamp: uint64(i) * 1000,
			Data:      []byte{0x12, 0x10, 0xa6, 0x80, 0x65},
			Rssi:      -60.0,
		}
		err = pcap.AppendFrame(frame)
		if err != nil {
			t.Fatal(err)
		}

		err = pcap.Sync()
		if err != nil {
			t.Fatal(err)
		}
		assert.True(t, pcapFileHeaderSize+(pcapFrameHeaderSize+5)*(i+1) == getFileSize(t, pcapFilename))
	}
}

func TestPcapFileHeader(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test_hdr.pcap")
	pcap, err := NewFile(pcapFilename)
	if err != nil {
		t.Fatal(err)
	}
	_ = pcap.Close()

	data, err := os.ReadFile(pcapFilename)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, pcapFileHeaderSize, len(data))
	assert.Equal(t, uint32(pcapMagicNumber), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint16(pcapVersionMajor), binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, uint16(pcapVersionMinor), binary.LittleEndian.Uint16(data[6:8]))
	assert.Equal(t, uint32(dltUser0), binary.LittleEndian.Uint32(data[20:24]))
}

func TestPcapFrameTimestamp(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test_ts.pcap")
	pcap, err := NewFile(pcapFilename)
	if err != nil {
		t.Fatal(err)
	}

	err = pcap.AppendFrame(Frame{Timestamp: 2500000, Data: []byte{0x01}})
	if err != nil {
		t.Fatal(err)
	}
	_ = pcap.Close()

	data, err := os.ReadFile(pcapFilename)
	if err != nil {
		t.Fatal(err)
	}

	frameHdr := data[pcapFileHeaderSize:]
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(frameHdr[:4]))
	assert.Equal(t, uint32(500000), binary.LittleEndian.Uint32(frameHdr[4:8]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(frameHdr[8:12]))
}

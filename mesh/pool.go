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

package mesh

import (
	"sync"

	"github.com/meshsim/lorasim/logger"
)

// Pool is the owner of packet handle lifetime. It hands out copies and
// reclaims them exactly once. Releasing a handle the pool does not own, or
// releasing the same handle twice, is a caller bug and aborts.
type Pool struct {
	mu        sync.Mutex
	live      map[*Packet]struct{}
	allocated uint64
	released  uint64
}

func NewPool() *Pool {
	return &Pool{
		live: map[*Packet]struct{}{},
	}
}

// AllocCopy allocates a fresh handle holding a deep copy of p. The caller
// owns the returned handle and must Release it exactly once.
func (pl *Pool) AllocCopy(p *Packet) *Packet {
	np := *p
	np.Payload = make([]byte, len(p.Payload))
	copy(np.Payload, p.Payload)

	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.live[&np] = struct{}{}
	pl.allocated++
	return &np
}

// Release returns a handle to the pool. Each handle must be released exactly
// once; a second release indicates a double-free in the caller.
func (pl *Pool) Release(p *Packet) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if _, ok := pl.live[p]; !ok {
		logger.Panicf("release of packet not owned by pool (double release?): %v", p)
	}
	delete(pl.live, p)
	pl.released++
}

// Live returns the number of currently outstanding handles.
func (pl *Pool) Live() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.live)
}

// Allocated returns the total number of handles handed out.
func (pl *Pool) Allocated() uint64 {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.allocated
}

// Released returns the total number of handles reclaimed.
func (pl *Pool) Released() uint64 {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.released
}

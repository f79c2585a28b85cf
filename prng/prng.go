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

// Package prng provides the seeded random sources of the simulation. All
// randomness in a run derives from a single root seed, so that a run can be
// reproduced exactly by reusing the seed.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var radioSeedGenerator *rand.Rand
var packetIdSeedGenerator *rand.Rand
var linkQualityGenerator *rand.Rand

// Init initializes the prng package, either with a fixed PRNG seed
// (rootSeed != 0) or a 'random' time-based PRNG seed (if rootSeed == 0).
// It returns the root seed in effect.
func Init(rootSeed int64) int64 {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}

	root := rand.New(rand.NewSource(rootSeed))
	radioSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	packetIdSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	linkQualityGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	return rootSeed
}

// NewRadioRandomSeed generates a unique random seed for a newly created
// radio's transmit-delay jitter source.
func NewRadioRandomSeed() RandomSeed {
	return RandomSeed(radioSeedGenerator.Int63())
}

// NewPacketIdStart generates the random starting packet id for a node, so
// that packet ids of different nodes don't trivially collide.
func NewPacketIdStart() uint32 {
	return packetIdSeedGenerator.Uint32()
}

// NewUnitRandom generates a new random unit [0, 1) float, which can be used
// as a random probability or interpolation factor.
func NewUnitRandom() float64 {
	return linkQualityGenerator.Float64()
}

func init() {
	Init(0)
}

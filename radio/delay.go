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

package radio

import (
	"math/rand"
	"time"

	"github.com/simonlingoogle/go-simplelogger"

	"github.com/meshsim/lorasim/prng"
	. "github.com/meshsim/lorasim/types"
)

// DelayPolicy decides how long a radio waits before a transmit attempt.
type DelayPolicy interface {
	// TxDelay returns the randomized collision-avoidance delay for a
	// locally originated packet.
	TxDelay() time.Duration

	// TxDelaySnr returns the delay for a packet that is a reaction to a
	// received packet with the given SNR. The result is deterministic and
	// monotonic in snr, and strictly positive.
	TxDelaySnr(snr DbValue) time.Duration
}

// Contention-window parameters of the default policy.
const (
	slotTime         = 42 * time.Millisecond
	cwMin            = 2
	cwMax            = 8
	snrMin   DbValue = -20.0
	snrMax   DbValue = 10.0
)

// ContentionDelayPolicy is the default DelayPolicy: a CSMA-style randomized
// backoff for local packets, and an SNR-weighted contention window for
// reaction packets. Stronger reception maps to a larger window, so that
// nearby nodes yield and far nodes get to rebroadcast first.
type ContentionDelayPolicy struct {
	rnd *rand.Rand
}

// NewContentionDelayPolicy creates the policy with the given jitter seed.
// Seed 0 draws a seed from the prng package.
func NewContentionDelayPolicy(seed prng.RandomSeed) *ContentionDelayPolicy {
	if seed == 0 {
		seed = prng.NewRadioRandomSeed()
	}
	return &ContentionDelayPolicy{
		rnd: rand.New(rand.NewSource(int64(seed))),
	}
}

func (c *ContentionDelayPolicy) TxDelay() time.Duration {
	d := slotTime * time.Duration(1<<cwMin+c.rnd.Intn(1<<cwMax))
	simplelogger.AssertTrue(d > 0)
	return d
}

func (c *ContentionDelayPolicy) TxDelaySnr(snr DbValue) time.Duration {
	if snr < snrMin {
		snr = snrMin
	}
	if snr > snrMax {
		snr = snrMax
	}
	cw := cwMin + int(float64(cwMax-cwMin)*(snr-snrMin)/(snrMax-snrMin))
	d := slotTime * time.Duration(int64(1)<<cw)
	simplelogger.AssertTrue(d > 0)
	return d
}

// MaxDelay returns an upper bound on any delay this policy can return,
// usable by harnesses that need to advance virtual time far enough for a
// pending transmit delay to fire.
func (c *ContentionDelayPolicy) MaxDelay() time.Duration {
	return slotTime * time.Duration(1<<cwMin+1<<cwMax)
}

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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error", "off"} {
		lv, err := ParseLevel(name)
		assert.Nil(t, err)
		assert.Equal(t, name, LevelString(lv))
	}

	_, err := ParseLevel("nonsense")
	assert.NotNil(t, err)
}

func TestSetGetLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, GetLevel())
	SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, GetLevel())
}

func TestPanicf(t *testing.T) {
	assert.Panics(t, func() {
		Panicf("contract violated: %d", 42)
	})
}

func TestAsserts(t *testing.T) {
	assert.True(t, AssertTrue(true))
	assert.True(t, AssertFalse(false))
	assert.True(t, AssertNil(nil))
	assert.True(t, AssertNotNil(1))
	assert.True(t, AssertEqual(3, 3))

	assert.Panics(t, func() { AssertTrue(false, "must hold") })
	assert.Panics(t, func() { AssertFalse(true) })
	assert.Panics(t, func() { AssertNil(1) })
	assert.Panics(t, func() { AssertNotNil(nil) })
	assert.Panics(t, func() { AssertEqual(1, 2) })
}

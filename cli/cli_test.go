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

package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	"github.com/meshsim/lorasim/progctx"
	"github.com/meshsim/lorasim/sim"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := ParseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	assert.Nil(t, ParseBytes([]byte(`send 1 "hello"`), &cmd))
	assert.NotNil(t, cmd.Send)
	assert.Equal(t, 1, cmd.Send.Node.Id)
	assert.Equal(t, "hello", cmd.Send.Text)
	assert.Nil(t, cmd.Send.Port)

	assert.Nil(t, ParseBytes([]byte(`send 2 "hi there" port 5`), &cmd))
	assert.NotNil(t, cmd.Send)
	assert.Equal(t, 2, cmd.Send.Node.Id)
	assert.True(t, cmd.Send.Port != nil && *cmd.Send.Port == 5)

	assert.NotNil(t, ParseBytes([]byte("send"), &cmd))
	assert.NotNil(t, ParseBytes([]byte("send 1"), &cmd))

	assert.Nil(t, ParseBytes([]byte("cancel 1 1234"), &cmd))
	assert.NotNil(t, cmd.Cancel)
	assert.Equal(t, 1, cmd.Cancel.Node.Id)
	assert.Equal(t, 1234, cmd.Cancel.Id)
	assert.NotNil(t, ParseBytes([]byte("cancel 1"), &cmd))

	assert.Nil(t, ParseBytes([]byte("status 3"), &cmd))
	assert.NotNil(t, cmd.Status)
	assert.Equal(t, 3, cmd.Status.Node.Id)

	assert.True(t, ParseBytes([]byte("nodes"), &cmd) == nil && cmd.Nodes != nil)
	assert.True(t, ParseBytes([]byte("counters"), &cmd) == nil && cmd.Counters != nil)
	assert.True(t, ParseBytes([]byte("airtime"), &cmd) == nil && cmd.Airtime != nil)
	assert.True(t, ParseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
	assert.True(t, ParseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	assert.True(t, ParseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, ParseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel.Level == "debug")
	assert.True(t, ParseBytes([]byte("log warn"), &cmd) == nil && cmd.LogLevel.Level == "warn")

	assert.True(t, ParseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.True(t, ParseBytes([]byte("help send"), &cmd) == nil && cmd.Help.HelpTopic == "send")
}

func newTestRunner(t *testing.T) (*CmdRunner, *clock.Mock, *progctx.ProgCtx) {
	cfg := sim.DefaultConfig()
	cfg.Seed = 1
	mk := clock.NewMock()
	s, err := sim.New(cfg, mk)
	if err != nil {
		t.Fatal(err)
	}
	ctx := progctx.New(context.Background())
	return NewCmdRunner(ctx, s), mk, ctx
}

func runCommand(t *testing.T, rt *CmdRunner, cmdline string) string {
	var sb strings.Builder
	_ = rt.RunCommand(cmdline, &sb)
	return sb.String()
}

func TestCmdRunner_Send(t *testing.T) {
	rt, _, _ := newTestRunner(t)

	out := runCommand(t, rt, `send 1 "hello mesh"`)
	assert.Contains(t, out, "Done")
	assert.NotContains(t, out, "Error")

	out = runCommand(t, rt, `send 99 "nobody home"`)
	assert.Contains(t, out, "Error")
}

func TestCmdRunner_SendAndCancel(t *testing.T) {
	rt, _, _ := newTestRunner(t)

	out := runCommand(t, rt, `send 1 "take it back"`)
	pktId := strings.TrimSpace(strings.Split(out, "\n")[0])

	out = runCommand(t, rt, "cancel 1 "+pktId)
	assert.Contains(t, out, "Done")
	assert.NotContains(t, out, "Error")

	// a second cancel finds nothing
	out = runCommand(t, rt, "cancel 1 "+pktId)
	assert.Contains(t, out, "Error")
}

func TestCmdRunner_Status(t *testing.T) {
	rt, _, _ := newTestRunner(t)

	out := runCommand(t, rt, "status 1")
	assert.Contains(t, out, "queue 16/16 free")

	_ = runCommand(t, rt, `send 1 "occupy"`)
	out = runCommand(t, rt, "status 1")
	assert.Contains(t, out, "queue 15/16 free")

	out = runCommand(t, rt, "status 42")
	assert.Contains(t, out, "Error")
}

func TestCmdRunner_Nodes(t *testing.T) {
	rt, _, _ := newTestRunner(t)
	out := runCommand(t, rt, "nodes")
	assert.Contains(t, out, "1 2 3")
}

func TestCmdRunner_Reports(t *testing.T) {
	rt, mk, _ := newTestRunner(t)
	_ = runCommand(t, rt, `send 1 "traffic"`)
	mk.Add(60 * time.Second)

	out := runCommand(t, rt, "counters")
	assert.Contains(t, out, "txGood")

	out = runCommand(t, rt, "airtime")
	assert.Contains(t, out, "utilization")

	out = runCommand(t, rt, "time")
	assert.Contains(t, out, "1m0s")
}

func TestCmdRunner_Help(t *testing.T) {
	rt, _, _ := newTestRunner(t)

	out := runCommand(t, rt, "help")
	assert.Contains(t, out, "send")
	assert.Contains(t, out, "cancel")

	out = runCommand(t, rt, "help send")
	assert.Contains(t, out, "send")

	out = runCommand(t, rt, "help bogus")
	assert.Contains(t, out, "unknown command")
}

func TestCmdRunner_BadCommand(t *testing.T) {
	rt, _, _ := newTestRunner(t)
	out := runCommand(t, rt, "frobnicate 12")
	assert.Contains(t, out, "Error")
}

func TestCmdRunner_Exit(t *testing.T) {
	rt, _, ctx := newTestRunner(t)
	assert.Nil(t, ctx.Err())

	_ = runCommand(t, rt, "exit")
	assert.NotNil(t, ctx.Err())

	// after exit no further commands run
	out := runCommand(t, rt, "nodes")
	assert.Equal(t, "", out)
}

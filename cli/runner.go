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

// Package cli implements the interactive command line interface of the
// simulator.
package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/progctx"
	"github.com/meshsim/lorasim/sim"
	"github.com/meshsim/lorasim/types"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

type CmdRunner struct {
	sim  *sim.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, s *sim.Simulation) *CmdRunner {
	cr := &CmdRunner{
		ctx:  ctx,
		sim:  s,
		help: newHelp(),
	}
	return cr
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := ParseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Send != nil {
		rt.executeSend(cc, cmd.Send)
	} else if cmd.Cancel != nil {
		rt.executeCancel(cc, cmd.Cancel)
	} else if cmd.Status != nil {
		rt.executeStatus(cc, cmd.Status)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc)
	} else if cmd.Airtime != nil {
		rt.executeAirtime(cc)
	} else if cmd.Time != nil {
		rt.executeTime(cc)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc)
	} else {
		cc.errorf("unknown command")
	}
}

func (rt *CmdRunner) executeSend(cc *CommandContext, cmd *SendCmd) {
	port := types.PortText
	if cmd.Port != nil {
		port = types.PortNum(*cmd.Port)
	}
	pktId, err := rt.sim.Send(types.NodeId(cmd.Node.Id), port, []byte(cmd.Text))
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("%d\n", pktId)
}

func (rt *CmdRunner) executeCancel(cc *CommandContext, cmd *CancelCmd) {
	ok, err := rt.sim.Cancel(types.NodeId(cmd.Node.Id), types.PacketId(cmd.Id))
	if err != nil {
		cc.error(err)
		return
	}
	if !ok {
		cc.errorf("packet %d not pending on node %d", cmd.Id, cmd.Node.Id)
	}
}

func (rt *CmdRunner) executeStatus(cc *CommandContext, cmd *StatusCmd) {
	st, err := rt.sim.QueueStatus(types.NodeId(cmd.Node.Id))
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("queue %d/%d free\n", st.Free, st.MaxLen)
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext) {
	for _, id := range rt.sim.NodeIds() {
		cc.outputf("%d ", id)
	}
	cc.outputf("\n")
}

func (rt *CmdRunner) executeCounters(cc *CommandContext) {
	rt.sim.WriteCountersReport(cc.output)
}

func (rt *CmdRunner) executeAirtime(cc *CommandContext) {
	rt.sim.WriteAirtimeReport(cc.output)
}

func (rt *CmdRunner) executeTime(cc *CommandContext) {
	cc.outputf("%v\n", rt.sim.Elapsed())
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%s\n", logger.LevelString(logger.GetLevel()))
	} else {
		lv, err := logger.ParseLevel(cmd.Level)
		if err != nil {
			cc.error(err)
			return
		}
		logger.SetLevel(lv)
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if cmd.HelpTopic == "" {
		cc.outputf("%s", rt.help.outputGeneralHelp())
	} else {
		cc.outputf("%s", rt.help.outputCommandHelp(cmd.HelpTopic))
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext) {
	rt.ctx.Cancel("exit")
}

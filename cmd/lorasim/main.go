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

// Command lorasim runs an interactive mesh radio simulation.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/meshsim/lorasim/cli"
	"github.com/meshsim/lorasim/logger"
	"github.com/meshsim/lorasim/progctx"
	"github.com/meshsim/lorasim/sim"
)

type mainArgs struct {
	ConfigFile string
	NumNodes   int
	Seed       int64
	TxQueueLen int
	PcapFile   string
	NoRelay    bool
	LogLevel   string
}

var args mainArgs

func parseArgs() {
	flag.StringVar(&args.ConfigFile, "config", "", "load simulation config from a YAML file")
	flag.IntVar(&args.NumNodes, "nodes", 0, "number of nodes in the simulation")
	flag.Int64Var(&args.Seed, "seed", 0, "random seed (0 selects a time-based seed)")
	flag.IntVar(&args.TxQueueLen, "queue", 0, "transmit queue length per node")
	flag.StringVar(&args.PcapFile, "pcap", "", "write transmitted frames to a PCAP file")
	flag.BoolVar(&args.NoRelay, "no-relay", false, "disable flood relaying of received packets")
	flag.StringVar(&args.LogLevel, "log", "", "set logging level: debug, info, warn, error.")

	flag.Parse()
}

func buildConfig() (*sim.Config, error) {
	cfg := sim.DefaultConfig()
	if args.ConfigFile != "" {
		var err error
		cfg, err = sim.LoadConfig(args.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	// flags override the config file
	if args.NumNodes > 0 {
		cfg.NumNodes = args.NumNodes
	}
	if args.Seed != 0 {
		cfg.Seed = args.Seed
	}
	if args.TxQueueLen > 0 {
		cfg.TxQueueLen = args.TxQueueLen
	}
	if args.PcapFile != "" {
		cfg.PcapFile = args.PcapFile
	}
	if args.NoRelay {
		cfg.FloodRelay = false
	}
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}
	return cfg, nil
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func main() {
	parseArgs()

	cfg, err := buildConfig()
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	lv, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(lv)

	ctx := progctx.New(context.Background())
	ctx.Defer(func() {
		_ = os.Stdin.Close()
	})
	handleSignals(ctx)

	s, err := sim.New(cfg, clock.New())
	if err != nil {
		logger.Errorf("simulation: %v", err)
		os.Exit(1)
	}

	rt := cli.NewCmdRunner(ctx, s)
	if err := cli.RunCli(rt, nil); err != nil && ctx.Err() == nil {
		logger.Errorf("console: %v", err)
	}
	ctx.Cancel("console exit")

	s.WriteCountersReport(os.Stdout)
	s.WriteAirtimeReport(os.Stdout)
	s.Stop()

	ctx.Wait()
	logger.Infof("simulation exit.")
}

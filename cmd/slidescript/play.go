/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slidescript/internal/crash"
	"slidescript/internal/domain"
	"slidescript/internal/playback"
	"slidescript/internal/vector"
)

// errTimeout is returned when playback outlives --duration.
var errTimeout = errors.New("playback did not finish in time")

// keyEnter is the key code sent for an empty input line.
const keyEnter = 13

// autoEvent builds the input that releases gate g, if one is needed.
// Timed blocks elapse on their own.
func autoEvent(g *domain.SlideElement) (playback.Event, bool) {
	switch p := g.Payload.(type) {
	case *domain.KeyboardEventData:
		ev := playback.Event{Type: playback.EventKeyPress, P1: p.Key}
		if p.Release {
			ev.Type = playback.EventKeyRelease
		}
		if ev.P1 == 0 {
			ev.P1 = keyEnter
		}
		return ev, true
	case *domain.MouseEventData:
		ev := playback.Event{Type: playback.EventMouseLeftDown}
		if p.Button == domain.MouseRight {
			ev.Type = playback.EventMouseRightDown
		}
		if !p.Unconditional() {
			c := p.Area().Min.Add(p.Area().Max).Mul(0.5)
			ev.P1, ev.P2 = int(c.X), int(c.Y)
		}
		return ev, true
	case *domain.BlockData:
		if p.Millis == 0 {
			return playback.Event{Type: playback.EventKeyPress, P1: keyEnter}, true
		}
	}
	return playback.Event{}, false
}

// command is one line of interactive input.
type command struct {
	events []playback.Event
	pause  bool
	rewind bool
	quit   bool
}

// parseCommand reads one stdin line: empty for Enter, "k <code>" for a key,
// "click x y" or "right x y" for mouse buttons, "skip" to end blocking
// effects, "p" to toggle pause, "r" to rewind, "q" to quit.
func parseCommand(line string) (command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return command{events: []playback.Event{{Type: playback.EventKeyPress, P1: keyEnter}, {Type: playback.EventKeyRelease, P1: keyEnter}}}, nil
	}
	ints := func(want int) ([]int, error) {
		if len(f)-1 != want {
			return nil, fmt.Errorf("%s takes %d numbers", f[0], want)
		}
		out := make([]int, want)
		for i := range out {
			n, err := strconv.Atoi(f[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f[0], err)
			}
			out[i] = n
		}
		return out, nil
	}
	switch strings.ToLower(f[0]) {
	case "k", "key":
		n, err := ints(1)
		if err != nil {
			return command{}, err
		}
		return command{events: []playback.Event{{Type: playback.EventKeyPress, P1: n[0]}, {Type: playback.EventKeyRelease, P1: n[0]}}}, nil
	case "click", "right":
		n, err := ints(2)
		if err != nil {
			return command{}, err
		}
		down, up := playback.EventMouseLeftDown, playback.EventMouseLeftUp
		if strings.EqualFold(f[0], "right") {
			down, up = playback.EventMouseRightDown, playback.EventMouseRightUp
		}
		return command{events: []playback.Event{{Type: down, P1: n[0], P2: n[1]}, {Type: up, P1: n[0], P2: n[1]}}}, nil
	case "skip":
		return command{events: []playback.Event{{Type: playback.EventEffectEnd}}}, nil
	case "p", "pause":
		return command{pause: true}, nil
	case "r", "rewind":
		return command{rewind: true}, nil
	case "q", "quit":
		return command{quit: true}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", f[0])
}

// player runs a Driver headless and reports slide changes.
type player struct {
	d     *playback.Driver
	out   io.Writer
	log   *slog.Logger
	slide int
}

func (p *player) tick() {
	p.d.Tick()
	if s := p.d.Slide(); s != p.slide {
		p.slide = s
		p.log.Info("slide", slog.Int("slide", s+1), slog.Int("pos", p.d.Position()))
		fmt.Fprintf(p.out, "slide %d\n", s+1)
	}
}

func (p *player) state() string {
	return fmt.Sprintf("slide %d, element %d", p.d.Slide()+1, p.d.Position())
}

// runAuto plays on simulated time, answering every gate itself.
func (p *player) runAuto(ctx context.Context, clock *playback.ManualClock, tick, limit time.Duration) error {
	for clock.Now() <= limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.tick()
		if p.d.Done() {
			return nil
		}
		if g := p.d.Gate(); g != nil {
			if ev, ok := autoEvent(g); ok {
				p.d.InterfaceEvent(ev)
			}
		}
		clock.Advance(tick)
	}
	return fmt.Errorf("%w: stopped at %s", errTimeout, p.state())
}

// readLines streams the lines of in until it ends or ctx is done. The
// channel is closed either way.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// runInteractive plays in real time and feeds input lines to the driver.
func (p *player) runInteractive(ctx context.Context, in io.Reader, tick time.Duration) error {
	// stops the reader on every return path, quit included
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, in)
	// the first gate must exist before input can answer it
	p.tick()
	if p.d.Done() {
		return nil
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	paused := false
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: stopped at %s", errTimeout, p.state())
			}
			return nil
		case <-t.C:
			p.tick()
			if p.d.Done() {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				// input closed; keep playing what does not need it
				lines = nil
				continue
			}
			c, err := parseCommand(line)
			switch {
			case err != nil:
				fmt.Fprintln(p.out, "?", err)
			case c.quit:
				return nil
			case c.rewind:
				p.d.Rewind()
			case c.pause:
				if paused {
					paused = !p.d.Resume()
				} else {
					paused = p.d.Pause()
				}
			}
			for _, ev := range c.events {
				p.d.InterfaceEvent(ev)
			}
		}
	}
}

func newPlayCmd(a *app) *cobra.Command {
	var (
		auto     bool
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play <manifest>",
		Short: "Play a presentation headless and report slide changes",
		Long: "Plays the timeline without a display. With --auto the clock is simulated and every\n" +
			"input gate is answered automatically; otherwise input is read line by line from stdin\n" +
			"(Enter, k <code>, click x y, right x y, skip, p, r, q).",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := compileManifest(ctx, args[0], a.log)
			if err != nil {
				return fmt.Errorf("%w: %w", errCompile, err)
			}
			printDiagnostics(cmd.ErrOrStderr(), c.Diagnostics)

			screen := c.Screen
			if screen.X <= 0 || screen.Y <= 0 {
				screen = vector.V(float64(a.cfg.Screen.Width), float64(a.cfg.Screen.Height))
			}
			tick := time.Duration(max(a.cfg.Playback.TickMs, 1)) * time.Millisecond
			if !cmd.Flags().Changed("auto") {
				auto = a.cfg.Playback.AutoAdvance
			}

			opts := playback.Options{Screen: screen}
			var clock *playback.ManualClock
			if auto {
				clock = &playback.ManualClock{}
				opts.Clock = clock
			}
			p := &player{d: playback.NewDriver(c.Store, opts), out: cmd.OutOrStdout(), log: a.log}
			defer crash.Recover(c.Project, p.state)

			fmt.Fprintf(p.out, "slide 1\n")
			if auto {
				err = p.runAuto(ctx, clock, tick, duration)
			} else {
				if duration > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, duration)
					defer cancel()
				}
				err = p.runInteractive(ctx, cmd.InOrStdin(), tick)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(p.out, "finished: %d slides, %d elements\n", p.d.Slide()+1, p.d.Position())
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "simulate time and answer input gates automatically")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Minute, "give up after this much presentation time (0: no limit when interactive)")
	return cmd
}

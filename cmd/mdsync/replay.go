/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/yorkie-team/mdsync/internal/config"
	"github.com/yorkie-team/mdsync/internal/logging"
	"github.com/yorkie-team/mdsync/internal/metrics"
	"github.com/yorkie-team/mdsync/pkg/announcer"
	"github.com/yorkie-team/mdsync/pkg/document"
	"github.com/yorkie-team/mdsync/pkg/document/selection"
	"github.com/yorkie-team/mdsync/pkg/document/step"
	"github.com/yorkie-team/mdsync/pkg/presence"
	"github.com/yorkie-team/mdsync/pkg/session"
)

// maxSettleRounds bounds the debounce periods waited for at the end of a
// replay before the clients are reported as diverged.
const maxSettleRounds = 100

var realtime bool

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [scenario file]",
		Short: "Replay a scripted editing session of several clients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			r, err := newReplayer(cmd, conf, realtime)
			if err != nil {
				return err
			}
			defer r.close()

			if err := r.run(sc); err != nil {
				return err
			}
			return r.printSummary()
		},
	}
}

// replayer drives the sessions of a scenario.
type replayer struct {
	cmd      *cobra.Command
	conf     *config.Config
	interval time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics

	manual *announcer.ManualScheduler
	start  time.Time

	host     *host
	registry *session.Registry
}

func newReplayer(cmd *cobra.Command, conf *config.Config, useSystemClock bool) (*replayer, error) {
	interval, err := conf.Session.ParseDebounceInterval()
	if err != nil {
		return nil, err
	}

	m, err := metrics.NewMetrics()
	if err != nil {
		return nil, err
	}

	r := &replayer{
		cmd:      cmd,
		conf:     conf,
		interval: interval,
		logger:   logging.New("replay"),
		metrics:  m,
		start:    time.Now(),
	}

	var scheduler announcer.Scheduler = announcer.SystemScheduler{}
	if !useSystemClock {
		r.manual = announcer.NewManualScheduler()
		scheduler = r.manual
	}

	r.registry = session.NewRegistry(
		func(handle session.Handle, ev session.Event) {
			r.host.receive(handle, ev)
		},
		session.WithConfig(conf.Session),
		session.WithScheduler(scheduler),
		session.WithMetrics(m),
		session.WithLogger(r.logger),
	)
	return r, nil
}

func (r *replayer) now() time.Duration {
	if r.manual != nil {
		return r.manual.Now()
	}
	return time.Since(r.start)
}

func (r *replayer) wait(d time.Duration) {
	if r.manual != nil {
		r.manual.Advance(d)
		return
	}
	time.Sleep(d)
}

func (r *replayer) run(sc *Scenario) error {
	doc, err := document.Parse(sc.Content, r.conf.Session.MaxStepHistory)
	if err != nil {
		return fmt.Errorf("parse scenario content: %w", err)
	}

	if r.host, err = newHost(r.cmd.OutOrStdout(), r.now, doc); err != nil {
		return err
	}
	r.host.registry = r.registry

	for _, spec := range sc.Clients {
		id := spec.ID
		if id == "" {
			id = uuid.New().String()
		}
		if err := r.host.join(spec.Name, id); err != nil {
			return err
		}
	}

	for i, a := range sc.Actions {
		if err := r.apply(a); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}

	for i := 0; i < maxSettleRounds && !r.settled(); i++ {
		r.wait(r.interval)
	}
	return nil
}

func (r *replayer) apply(a Action) error {
	if a.Wait != "" {
		r.wait(a.WaitDuration())
		return nil
	}

	switch {
	case a.Leave:
		return r.host.leave(a.Client)
	case a.Resync:
		return r.host.resync(a.Client)
	}

	c, ok := r.host.roster.byName(a.Client)
	if !ok {
		return fmt.Errorf("%s: %w", a.Client, errUnknownClient)
	}
	s, ok := r.registry.Get(c.Handle)
	if !ok {
		r.host.report(c, "action ignored, client left")
		return nil
	}

	switch {
	case a.Edit != nil:
		st := step.NewReplaceStep(a.Edit.From, a.Edit.To, a.Edit.Text)
		if err := s.Edit([]step.Step{st}, nil); err != nil {
			r.host.report(c, "edit %s failed: %v", st, err)
			return nil
		}
		r.host.report(c, "edit %s", st)
	case a.Select != nil:
		sel := selection.New(a.Select.Anchor, a.Select.Head)
		if err := s.Select(sel); err != nil {
			r.host.report(c, "select %s failed: %v", sel, err)
			return nil
		}
		r.host.report(c, "select %s", sel)
	default:
		return errors.New("empty action")
	}
	return nil
}

func (r *replayer) settled() bool {
	if r.manual != nil && r.manual.Pending() > 0 {
		return false
	}
	return r.host.converged()
}

func (r *replayer) close() {
	r.registry.Close()
}

func (r *replayer) printSummary() error {
	snap := r.host.snapshot()
	out := r.cmd

	out.Printf("\nhost: version %d, %d announcements accepted, %d rejected\n",
		snap.version, snap.accepted, snap.rejected)
	out.Printf("content: %q\n", snap.content)
	out.Printf("converged: %t\n\n", r.host.converged())

	tw := newTable()
	tw.AppendHeader(table.Row{"CLIENT", "ID", "VERSION", "PENDING", "SELECTION", "PRESENCE", "CONTENT"})
	for _, c := range r.host.roster.all() {
		s, ok := r.registry.Get(c.Handle)
		if !ok {
			tw.AppendRow(table.Row{c.Name, c.ID, "-", "-", "-", "-", "(left)"})
			continue
		}
		v, _ := s.Version()
		sel, _ := s.Selection()
		text, _ := s.Content()
		tw.AppendRow(table.Row{
			c.Name,
			c.ID,
			v,
			len(s.PendingSteps()),
			sel.String(),
			r.describePresence(s.Decorations()),
			fmt.Sprintf("%q", text),
		})
	}
	out.Printf("%s\n\n", tw.Render())

	families, err := r.metrics.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	mw := newTable()
	mw.AppendHeader(table.Row{"METRIC", "LABELS", "VALUE"})
	for _, family := range families {
		for _, m := range family.GetMetric() {
			mw.AppendRow(table.Row{family.GetName(), describeLabels(m), valueOf(family, m)})
		}
	}
	out.Printf("%s\n", mw.Render())

	return nil
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func (r *replayer) describePresence(decorations []presence.Decoration) string {
	var parts []string
	for _, d := range decorations {
		name := d.ClientID
		if c, ok := r.host.roster.byID(d.ClientID); ok {
			name = c.Name
		}
		if d.Kind == presence.KindCursor {
			parts = append(parts, fmt.Sprintf("%s@%d", name, d.From))
		} else {
			parts = append(parts, fmt.Sprintf("%s[%d,%d)", name, d.From, d.To))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func describeLabels(m *dto.Metric) string {
	var labels []string
	for _, pair := range m.GetLabel() {
		labels = append(labels, pair.GetName()+"="+pair.GetValue())
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}

func valueOf(family *dto.MetricFamily, m *dto.Metric) float64 {
	switch family.GetType() {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return 0
	}
}

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(
		&realtime,
		"realtime",
		false,
		"Replay with the system clock instead of a virtual one",
	)

	rootCmd.AddCommand(cmd)
}

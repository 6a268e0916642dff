package presentation

import (
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

// Input is what every stage sees during one projection.
type Input struct {
	Snapshot  *model.Snapshot
	Now       time.Time
	Config    Config
	Freshness map[model.Group]Freshness
}

// Rendered reports whether the values of g may be displayed: the group is
// fresh and its status indicator does not say offline.
func (in Input) Rendered(g model.Group) bool {
	return in.Freshness[g] == Fresh && in.Snapshot.Indicator(g) != model.IndicatorOffline
}

// Stage is one step of the projection. Stages only write the keys they own.
type Stage interface {
	Name() string
	Apply(in Input, out *DisplayMapping)
}

type stageFunc struct {
	name string
	fn   func(Input, *DisplayMapping)
}

func (s stageFunc) Name() string                        { return s.name }
func (s stageFunc) Apply(in Input, out *DisplayMapping) { s.fn(in, out) }

// NewStage adapts a function to the Stage interface.
func NewStage(name string, fn func(Input, *DisplayMapping)) Stage {
	return stageFunc{name: name, fn: fn}
}

// Pipeline runs stages in order over a fresh mapping. It is immutable and
// safe for concurrent use.
type Pipeline struct {
	cfg    Config
	stages []Stage
}

// NewPipeline returns a pipeline with the given stages, or DefaultStages when
// none are passed.
func NewPipeline(cfg Config, stages ...Stage) *Pipeline {
	cfg.SetDefaults()
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	return &Pipeline{cfg: cfg, stages: append([]Stage(nil), stages...)}
}

// With returns a copy of p with extra stages appended.
func (p *Pipeline) With(stages ...Stage) *Pipeline {
	all := make([]Stage, 0, len(p.stages)+len(stages))
	all = append(all, p.stages...)
	all = append(all, stages...)
	return &Pipeline{cfg: p.cfg, stages: all}
}

// Config returns the configuration the pipeline projects with.
func (p *Pipeline) Config() Config { return p.cfg }

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Project maps s at now. A nil snapshot yields a mapping where every group is
// absent.
func (p *Pipeline) Project(s *model.Snapshot, now time.Time) DisplayMapping {
	if s == nil {
		s = &model.Snapshot{}
	}
	in := Input{
		Snapshot:  s,
		Now:       now,
		Config:    p.cfg,
		Freshness: make(map[model.Group]Freshness, len(model.Groups)),
	}
	out := newMapping(now)
	for _, g := range model.Groups {
		f := ComputeFreshness(s.Group(g), now, p.cfg.MaxAge())
		in.Freshness[g] = f
		out.Freshness[g] = f
	}
	if ts, ok := s.Time(); ok {
		out.Stamp = ts
	}
	for _, st := range p.stages {
		st.Apply(in, &out)
	}
	return out
}

// Project runs the default pipeline once.
func Project(s *model.Snapshot, now time.Time, cfg Config) DisplayMapping {
	return NewPipeline(cfg).Project(s, now)
}

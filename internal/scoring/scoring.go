// Package scoring combines task skill, product skill and the frequency
// penalty into the single score candidate workers are ranked by.
package scoring

import (
	"sort"

	"shiftalloc/internal/roster"
)

// Repository is the slice of roster capability the engine needs. The
// concrete *roster.Roster satisfies it; tests inject in-memory fakes.
type Repository interface {
	SkillFor(worker, taskName string, kind roster.TaskKind) int
	ProductSkillFor(worker, product string) int
	TaskMeta(name string, kind roster.TaskKind) (roster.Task, bool)
}

// Penalizer supplies the frequency penalty for a task-worker pair.
// *history.Tracker satisfies it.
type Penalizer interface {
	Penalty(taskName, worker string, windowDays int) int
}

// Breakdown is one scored candidate. The components are exposed alongside
// the total so callers can show how a score was arrived at. Total is always
// a float64, whether or not a penalty applied.
type Breakdown struct {
	Worker       string
	TaskSkill    int
	ProductSkill int
	Penalty      int
	Total        float64
}

// Engine scores and ranks workers for tasks.
type Engine struct {
	repo       Repository
	penalties  Penalizer
	windowDays int
}

// New builds an engine. windowDays <= 0 falls back to the tracker default.
func New(repo Repository, penalties Penalizer, windowDays int) *Engine {
	return &Engine{repo: repo, penalties: penalties, windowDays: windowDays}
}

// Score computes the breakdown for one worker on one task-product pair.
// The frequency penalty is subtracted only when the task is flagged for
// tracking; unknown tasks are never penalized.
func (e *Engine) Score(worker, taskName string, kind roster.TaskKind, product string) Breakdown {
	b := Breakdown{
		Worker:    worker,
		TaskSkill: e.repo.SkillFor(worker, taskName, kind),
	}
	if product != "" {
		b.ProductSkill = e.repo.ProductSkillFor(worker, product)
	}
	if task, ok := e.repo.TaskMeta(taskName, kind); ok && task.TrackFrequency && e.penalties != nil {
		b.Penalty = e.penalties.Penalty(taskName, worker, e.windowDays)
	}
	b.Total = float64(b.TaskSkill+b.ProductSkill) - float64(b.Penalty)
	return b
}

// Rank scores the supplied available workers and sorts them by total,
// highest first. Only the given pool is considered, so callers re-rank by
// passing the shrunken pool after each provisional pick. The sort is
// stable: ties keep the pool's own order.
func (e *Engine) Rank(taskName string, kind roster.TaskKind, product string, available []string) []Breakdown {
	out := make([]Breakdown, 0, len(available))
	for _, worker := range available {
		out = append(out, e.Score(worker, taskName, kind, product))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// RankEligible is Rank restricted to candidates whose combined skill before
// the penalty reaches minRating, mirroring the candidate lists the
// allocation screens present.
func (e *Engine) RankEligible(taskName string, kind roster.TaskKind, product string, available []string, minRating int) []Breakdown {
	ranked := e.Rank(taskName, kind, product, available)
	out := ranked[:0]
	for _, b := range ranked {
		if b.TaskSkill+b.ProductSkill >= minRating {
			out = append(out, b)
		}
	}
	return out
}

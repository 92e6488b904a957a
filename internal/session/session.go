// internal/session/session.go
package session

import (
	"strconv"
	"time"

	"onboarding-engine/internal/catalog"
	"onboarding-engine/internal/flow"
	"onboarding-engine/internal/matching"
)

// Answer is a submitted step answer: the canonical machine value and the
// human-readable echo shown in the transcript.
type Answer struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Contact is optional notification contact info supplied at session
// creation. The flow itself never asks for it.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Session is the complete per-user onboarding state. All fields are plain
// data so snapshots serialize to JSON; locking and in-flight bookkeeping
// live in the engine, not here.
type Session struct {
	ID           string            `json:"id"`
	CurrentIndex int               `json:"currentIndex"`
	Answers      map[string]Answer `json:"answers"`
	Flow         flow.FlowTag      `json:"flow,omitempty"`
	Contact      Contact           `json:"contact,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`

	// Pool holds auto-search results; Matches the final scored list. Both
	// are auto-step caches and are cleared by rewind.
	Pool    []catalog.CandidateUniversity `json:"pool,omitempty"`
	Matches []matching.ScoredUniversity   `json:"matches,omitempty"`
}

func New(id string, contact Contact) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Answers:   make(map[string]Answer),
		Contact:   contact,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SelectedFlow implements flow.State.
func (s *Session) SelectedFlow() (flow.FlowTag, bool) {
	return s.Flow, s.Flow != ""
}

// Answer implements flow.State: the canonical value for a step id or alias key.
func (s *Session) Answer(key string) (string, bool) {
	a, ok := s.Answers[key]
	return a.Value, ok
}

// Resolve returns the full answer pair at a step id or alias key.
func (s *Session) Resolve(key string) (Answer, bool) {
	a, ok := s.Answers[key]
	return a, ok
}

// SetAnswer writes the answer under the step id and, when an alias exists,
// under the shared profile key in the same operation. The write-time
// denormalization keeps alias readers consistent immediately after
// submission and lets rewind delete both entries by step id.
func (s *Session) SetAnswer(stepID, value, label string) {
	a := Answer{Value: value, Label: label}
	s.Answers[stepID] = a
	if key, ok := AliasFor(stepID); ok {
		s.Answers[key] = a
	}
	if stepID == flow.FlowSelectStepID {
		s.Flow = flow.FlowTag(value)
	}
	s.UpdatedAt = time.Now().UTC()
}

// RewindTo jumps back to index: every answer owned by a step at or after the
// rewind point is deleted together with its alias entry, auto-step caches
// tied to those steps are reset, and rewinding to or before the
// flow-selection step clears the selected flow entirely. All-or-nothing.
//
// Deletion only touches steps of the active flow (and flow-agnostic ones).
// Flows share alias keys, so a step from another flow, which was never
// visible and never answered, must not take out the alias entry an earlier
// step of the active flow wrote.
func (s *Session) RewindTo(reg *flow.Registry, index int) {
	selected, hasFlow := s.SelectedFlow()
	for i := index; i < reg.Len(); i++ {
		step := reg.At(i)
		switch step.Kind {
		case flow.KindAutoSearch:
			s.Pool = nil
		case flow.KindAutoMatch:
			s.Matches = nil
		}
		if !step.FlowAgnostic() && (!hasFlow || !step.InFlow(selected)) {
			continue
		}
		delete(s.Answers, step.ID)
		if key, ok := AliasFor(step.ID); ok {
			delete(s.Answers, key)
		}
	}

	if index <= reg.FlowSelectIndex() {
		s.Flow = ""
		s.Pool = nil
		s.Matches = nil
	}

	s.CurrentIndex = index
	s.UpdatedAt = time.Now().UTC()
}

// Profile assembles the normalized scoring profile from alias keys only.
// Absent or unparseable values become zero values; the scoring engine
// treats those as neutral.
func (s *Session) Profile() matching.Profile {
	p := matching.Profile{}
	if v, ok := s.Answer(KeyCountry); ok {
		p.Country = v
	}
	if v, ok := s.Answer(KeyCourse); ok {
		p.Course = v
	}
	if v, ok := s.Answer(KeyGPA); ok {
		p.GPA, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := s.Answer(KeyEnglishTest); ok && v != "none" {
		p.EnglishTest = v
	}
	if v, ok := s.Answer(KeyEnglishScore); ok {
		p.EnglishScore, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := s.Answer(KeyWorkExpMonths); ok {
		months, _ := strconv.ParseFloat(v, 64)
		p.WorkExpMonths = int(months)
	}
	if v, ok := s.Answer(KeyLoanAmount); ok {
		amount, _ := strconv.ParseFloat(v, 64)
		p.LoanAmount = int(amount)
	}
	return p
}

// Transcript returns answered steps in registry order with their labels.
func (s *Session) Transcript(reg *flow.Registry) []TranscriptEntry {
	var out []TranscriptEntry
	for i := 0; i < reg.Len(); i++ {
		step := reg.At(i)
		if a, ok := s.Answers[step.ID]; ok {
			out = append(out, TranscriptEntry{
				StepID: step.ID,
				Index:  i,
				Prompt: step.Prompt,
				Label:  a.Label,
			})
		}
	}
	return out
}

type TranscriptEntry struct {
	StepID string `json:"stepId"`
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Label  string `json:"label"`
}

package model

import (
	"fmt"
	"strings"
)

// Verdict is the judge outcome label exactly as Codeforces reports it.
type Verdict string

const (
	VerdictOK                  Verdict = "OK"
	VerdictWrongAnswer         Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded   Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictMemoryLimitExceeded Verdict = "MEMORY_LIMIT_EXCEEDED"
	VerdictRuntimeError        Verdict = "RUNTIME_ERROR"
	VerdictCompilationError    Verdict = "COMPILATION_ERROR"
	VerdictChallenged          Verdict = "CHALLENGED"
	VerdictSkipped             Verdict = "SKIPPED"
	VerdictTesting             Verdict = "TESTING"
)

// IsSuccess reports whether the submission was accepted.
func (v Verdict) IsSuccess() bool {
	return v == VerdictOK
}

type Problem struct {
	ContestID      int      `json:"contestId,omitempty"`
	ProblemsetName string   `json:"problemsetName,omitempty"`
	Index          string   `json:"index"`
	Name           string   `json:"name"`
	Rating         int      `json:"rating,omitempty"`
	Tags           []string `json:"tags"`
}

// ProblemIdentity uniquely identifies a problem across submissions.
type ProblemIdentity string

// Identity returns the canonical key: contest id and index when the problem
// belongs to a contest, problemset name and index for problemset-only problems,
// and the name as a last resort.
func (p Problem) Identity() ProblemIdentity {
	switch {
	case p.ContestID > 0:
		return ProblemIdentity(fmt.Sprintf("%d-%s", p.ContestID, p.Index))
	case p.ProblemsetName != "":
		return ProblemIdentity(p.ProblemsetName + "-" + p.Index)
	default:
		return ProblemIdentity("name:" + strings.TrimSpace(p.Name))
	}
}

type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId,omitempty"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	Verdict             Verdict `json:"verdict,omitempty"`
}

// EffectiveVerdict is the verdict used for counting. Codeforces omits the
// field while a submission is still being judged.
func (s Submission) EffectiveVerdict() Verdict {
	if s.Verdict == "" {
		return VerdictTesting
	}
	return s.Verdict
}

package order

type Outcome string

const (
	OutcomeAppropriate Outcome = "appropriate"
	OutcomeUnnecessary Outcome = "unnecessary"
	OutcomeHarmful     Outcome = "harmful"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeAppropriate, OutcomeUnnecessary, OutcomeHarmful:
		return true
	}
	return false
}

// Evaluation is the scored clinical-appropriateness judgment attached
// to one order's outcome. ScoreImpact is folded into the session score
// and then the value is discarded; only its effect persists.
type Evaluation struct {
	Outcome     Outcome `json:"evaluation"`
	ScoreImpact int     `json:"scoreImpact"`
	Feedback    string  `json:"feedback"`
}

// Clamp pins the score impact into the contract's [-10, 0] band; the
// model occasionally hands back positive or runaway values.
func (e *Evaluation) Clamp() {
	if e.ScoreImpact > 0 {
		e.ScoreImpact = 0
	}
	if e.ScoreImpact < -10 {
		e.ScoreImpact = -10
	}
	if !e.Outcome.IsValid() {
		e.Outcome = OutcomeUnnecessary
	}
}

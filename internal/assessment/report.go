package assessment

// Outcome is the per-item result in a report.
type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeUnanswered Outcome = "unanswered"
)

// ItemResult describes how one item was answered.
type ItemResult struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Outcome Outcome  `json:"outcome"`
	Chosen  *int     `json:"chosen,omitempty"`
	Correct int      `json:"correct"`
}

// Item rebuilds the question the result was graded against.
func (r ItemResult) Item() Item {
	return Item{
		ID:      r.Index,
		Prompt:  r.Prompt,
		Options: append([]string(nil), r.Options...),
		Correct: r.Correct,
	}
}

// Counts tallies outcomes; the fields always sum to the bank length.
type Counts struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

// Total returns the number of items counted.
func (c Counts) Total() int { return c.Correct + c.Incorrect + c.Unanswered }

// Report is the scored summary of a submitted attempt.
type Report struct {
	ScorePercent float64      `json:"score_percent"`
	Counts       Counts       `json:"counts"`
	Items        []ItemResult `json:"items"`
}

func buildReport(bank *Bank, answers map[int]int) Report {
	var counts Counts
	results := make([]ItemResult, 0, bank.Len())
	for i, it := range bank.items {
		res := ItemResult{
			Index:   i,
			Prompt:  it.Prompt,
			Options: append([]string(nil), it.Options...),
			Correct: it.Correct,
		}
		chosen, ok := answers[i]
		switch {
		case !ok:
			res.Outcome = OutcomeUnanswered
			counts.Unanswered++
		case chosen == it.Correct:
			res.Outcome = OutcomeCorrect
			counts.Correct++
		default:
			res.Outcome = OutcomeIncorrect
			counts.Incorrect++
		}
		if ok {
			c := chosen
			res.Chosen = &c
		}
		results = append(results, res)
	}
	return Report{
		ScorePercent: 100.0 * float64(counts.Correct) / float64(bank.Len()),
		Counts:       counts,
		Items:        results,
	}
}

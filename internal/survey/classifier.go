package survey

import "iter"

// DefaultLikes are the experience answers counted as "would use".
var DefaultLikes = []string{"interested", "would_use"}

// Classifier maps survey records onto the tracked technologies.
type Classifier struct {
	techs []Technology
	likes map[Experience]struct{}
}

// NewClassifier builds a Classifier for the given technologies and the set of
// experience answers that count as a positive signal.
func NewClassifier(techs []Technology, likes []string) *Classifier {
	set := make(map[Experience]struct{}, len(likes))
	for _, l := range likes {
		set[Experience(l)] = struct{}{}
	}
	return &Classifier{
		techs: append([]Technology(nil), techs...),
		likes: set,
	}
}

// Likes reports whether the answer belongs to the classification set.
func (c *Classifier) Likes(e Experience) bool {
	_, ok := c.likes[e]
	return ok
}

// Classify reduces a single record. Technologies the respondent did not
// answer are classified as false.
func (c *Classifier) Classify(rec Record) Reduced {
	votes := make(map[string]bool, len(c.techs))
	for _, t := range c.techs {
		tool, ok := rec.Tools[t.Key]
		votes[t.Key] = ok && c.Likes(tool.Experience)
	}
	return Reduced{Year: rec.Year, Votes: votes}
}

// Reduce applies Classify to every record of src, one output per input and in
// the same order. The first upstream error is passed through and ends the
// sequence.
func (c *Classifier) Reduce(src iter.Seq2[Record, error]) iter.Seq2[Reduced, error] {
	return func(yield func(Reduced, error) bool) {
		for rec, err := range src {
			if err != nil {
				yield(Reduced{}, err)
				return
			}
			if !yield(c.Classify(rec), nil) {
				return
			}
		}
	}
}

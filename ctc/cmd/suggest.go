package cmd

import (
	"math"
	"strings"

	"github.com/jbrukh/bayesian"

	ctc "github.com/libr0/ctc-accounts"
	"github.com/libr0/ctc-accounts/ctc/journal"
)

// accountSuggester proposes an income/expense account for settlement rows no
// handler claims, trained on the payee text of existing ledger transactions
// that touch the clearing account.
type accountSuggester struct {
	classifier *bayesian.Classifier
}

// trainSuggester builds a classifier from the journal's history. Returns nil
// when the history names fewer than two candidate accounts.
func trainSuggester(transactions []*journal.Transaction, chart ctc.Chart) *accountSuggester {
	clearing := strings.Join(chart.Clearing, ":")

	unique := make(map[string]bool)
	for _, t := range transactions {
		for _, p := range t.Postings {
			if p.Account != clearing {
				unique[p.Account] = true
			}
		}
	}
	if len(unique) < 2 {
		return nil
	}

	classes := make([]bayesian.Class, 0, len(unique))
	for name := range unique {
		classes = append(classes, bayesian.Class(name))
	}

	classifier := bayesian.NewClassifier(classes...)
	for _, t := range transactions {
		touchesClearing := false
		for _, p := range t.Postings {
			if p.Account == clearing {
				touchesClearing = true
				break
			}
		}
		if !touchesClearing {
			continue
		}
		payeeWords := strings.Fields(t.Payee)
		for _, p := range t.Postings {
			if p.Account != clearing {
				classifier.Learn(payeeWords, bayesian.Class(p.Account))
			}
		}
	}

	return &accountSuggester{classifier: classifier}
}

// Suggest classifies the description words into an account. Only a clear
// winner counts: a log-score margin above 10 over the runner-up indicates a
// high confidence match.
func (s *accountSuggester) Suggest(words []string) (string, bool) {
	if len(words) == 0 {
		return "", false
	}

	highScore1 := math.Inf(-1)
	highScore2 := math.Inf(-1)
	matchIdx := 0
	scores, _, _ := s.classifier.LogScores(words)
	for i, score := range scores {
		if score > highScore1 {
			highScore2 = highScore1
			highScore1 = score
			matchIdx = i
		}
	}
	if highScore1-highScore2 > 10 {
		return string(s.classifier.Classes[matchIdx]), true
	}
	return "", false
}

package bank

import (
	_ "embed"
	"fmt"

	"stagequiz/internal/domain"
)

//go:embed default.csv
var defaultCSV string

// Default returns the question bank embedded in the binary, used when no
// backing store is configured. The embedded file is validated by tests,
// so a parse failure here is a build defect.
func Default() []domain.Question {
	questions, rowErrs, err := ParseString(defaultCSV)
	if err != nil || len(rowErrs) > 0 {
		panic(fmt.Sprintf("embedded default bank invalid: %v %v", err, rowErrs))
	}
	return questions
}

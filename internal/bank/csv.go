// Package bank ingests question banks from CSV. Validation is per-row:
// bad rows are collected as error strings and never abort the parse, so
// an operator can load the good part of a bank and fix the rest later.
package bank

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stagequiz/internal/domain"
)

// Required header names. Optional columns: hint, explanation, links,
// author.
var requiredColumns = []string{
	"ordinal", "prompt", "answer",
	"option1", "option2", "option3", "option4",
	"bucket",
}

// Parse reads a question-bank CSV. It returns the valid questions, one
// message per rejected row, and a fatal error only when the header is
// unusable. Rows without a prompt are skipped silently; an unparseable
// ordinal gets a generated fallback id and an unparseable answer is left
// unset rather than zeroed to a wrong-but-valid option.
func Parse(r io.Reader) ([]domain.Question, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read bank header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, name)
		}
	}

	var (
		questions []domain.Question
		rowErrs   []string
		fallback  int
		line      = 1
	)
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		prompt := field("prompt")
		if prompt == "" {
			continue
		}

		id, err := strconv.Atoi(field("ordinal"))
		if err != nil {
			fallback--
			id = fallback
		}
		answer := 0
		if raw := field("answer"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				answer = n
			}
		}

		questions = append(questions, domain.Question{
			ID:          id,
			Prompt:      prompt,
			Answer:      answer,
			Hint:        field("hint"),
			Options:     []string{field("option1"), field("option2"), field("option3"), field("option4")},
			Bucket:      field("bucket"),
			Explanation: field("explanation"),
			Links:       splitLinks(field("links")),
			Author:      field("author"),
		})
	}
	return questions, rowErrs, nil
}

// ParseString parses an in-memory CSV document.
func ParseString(s string) ([]domain.Question, []string, error) {
	return Parse(strings.NewReader(s))
}

func splitLinks(raw string) []string {
	if raw == "" {
		return nil
	}
	var links []string
	for _, l := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	return links
}

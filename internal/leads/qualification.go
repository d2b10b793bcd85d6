package leads

import (
	"regexp"
	"strconv"
	"strings"
)

// Qualification is the coarse tier derived from self-reported revenue.
type Qualification string

const (
	QualificationQualified   Qualification = "qualified"
	QualificationUnqualified Qualification = "unqualified"
)

var numberRegex = regexp.MustCompile(`\d+`)

// ClassifyRevenue maps a free-text revenue bracket (e.g. "$20k-$30k/mo") to a
// qualification tier. The bracket's numbers are read as thousands of dollars;
// a bracket reaching $20k/mo qualifies, and the literal "75k" always denotes
// the top tier. Returns "" when the text carries no usable signal.
func ClassifyRevenue(rangeText string) Qualification {
	if strings.TrimSpace(rangeText) == "" {
		return ""
	}
	matches := numberRegex.FindAllString(rangeText, -1)
	if len(matches) == 0 {
		return ""
	}
	min, max := -1, -1
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		n *= 1000
		if min == -1 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	if min == -1 {
		return ""
	}
	if strings.Contains(rangeText, "75k") {
		return QualificationQualified
	}
	if min >= 20000 || max >= 20000 {
		return QualificationQualified
	}
	if max < 20000 {
		return QualificationUnqualified
	}
	return ""
}

package handlers

import (
	"errors"
	"strings"
)

// fuzzyValues maps the qualitative answer vocabulary to the confidence the
// game server stores. "idk" is absent on purpose: it means skip, not 0.
var fuzzyValues = map[string]float64{
	"yes":       1.0,
	"probably":  0.75,
	"sometimes": 0.5,
	"rarely":    0.25,
	"no":        0.0,
}

const answerSkip = "idk"

var errUnknownAnswer = errors.New("unknown answer choice")

// fuzzyValue resolves one submitted answer. skip is true for "idk"; any
// value outside the vocabulary is an error, caught before anything is sent
// upstream.
func fuzzyValue(answer string) (value float64, skip bool, err error) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == answerSkip || normalized == "" {
		return 0, true, nil
	}
	v, ok := fuzzyValues[normalized]
	if !ok {
		return 0, false, errUnknownAnswer
	}
	return v, false, nil
}

package workout

import (
	"strconv"
	"strings"
)

const (
	repsSeparator   = "-"
	defaultPrevious = "-"
)

// NormalizeSets converts client set payloads into sets. Rep-range bounds are
// only ever set from explicit minReps/maxReps values or from a legacy "8-12"
// reps string; a bound neither supplies stays nil. The input is not modified.
func NormalizeSets(in []SetInput) []Set {
	out := make([]Set, len(in))
	for i, s := range in {
		out[i] = normalizeSet(s)
	}
	return out
}

func normalizeSet(in SetInput) Set {
	s := Set{Previous: defaultPrevious}
	if n, ok := in.SetNumber.Int(); ok {
		s.SetNumber = n
	}
	if in.Previous != nil {
		s.Previous = *in.Previous
	}
	if kg, ok := in.Kg.Value(); ok {
		s.Kg = kg
	}
	s.Completed = in.Completed

	if v, ok := in.MinReps.Int(); ok {
		s.MinReps = &v
	}
	if v, ok := in.MaxReps.Int(); ok {
		s.MaxReps = &v
	}

	switch {
	case in.Reps.isText && strings.Contains(in.Reps.text, repsSeparator):
		parts := strings.Split(in.Reps.text, repsSeparator)
		if v, ok := leadingInt(parts[0]); ok {
			s.MinReps = &v
		}
		if v, ok := leadingInt(parts[1]); ok {
			s.MaxReps = &v
		}
	case in.Reps.isText:
		if v, ok := leadingInt(in.Reps.text); ok {
			s.Reps = v
		}
	default:
		if v, ok := in.Reps.count.Int(); ok {
			s.Reps = v
		}
	}
	return s
}

// PatchSets normalizes in as a replacement for prior. A set whose payload
// carries no rep-range field keeps the bounds stored on the prior set with
// the same set number.
func PatchSets(prior []Set, in []SetInput) []Set {
	out := NormalizeSets(in)
	byNumber := make(map[int]Set, len(prior))
	for _, p := range prior {
		byNumber[p.SetNumber] = p
	}
	for i := range out {
		if !in[i].omitsRange() {
			continue
		}
		if p, ok := byNumber[out[i].SetNumber]; ok {
			out[i].MinReps = copyInt(p.MinReps)
			out[i].MaxReps = copyInt(p.MaxReps)
		}
	}
	return out
}

// leadingInt parses the optionally signed run of digits at the start of s,
// ignoring surrounding whitespace and anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

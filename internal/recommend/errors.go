package recommend

import "errors"

var (
	ErrMalformedOutput = errors.New("ranker output is not a usable json object")
	ErrNoValidPicks    = errors.New("ranker returned no ids present in the context")
	ErrNoCandidates    = errors.New("no candidate vendors in range")
)

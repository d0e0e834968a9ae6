package citation

// Thresholds are the tuned limits of the citation cascade.
// The values are behavior-matched and should not be re-derived.
type Thresholds struct {
	MinAnswerLength    int
	MaxTitleLength     int
	EarlyContentLength int

	// MinKeywordLength is the shortest token kept as a keyword.
	MinKeywordLength int

	// LongTokenLength is the shortest answer token counted during support verification.
	LongTokenLength int

	TitleMatchScore    int
	ContentMatchScore  int
	DomainTitleBonus   int
	DomainContentBonus int

	// ConsiderScore is the floor for a candidate to be kept at all.
	ConsiderScore int

	// SelectScore is the floor for the winning candidate. StrictSelectScore replaces it
	// for answers with numbers or at least SalientTermCount distinct acronyms.
	SelectScore       int
	StrictSelectScore int
	SalientTermCount  int

	MinKeywordMatches       int
	MinKeywordMatchesLarge  int
	LargeKeywordSet         int
	MinAnswerSupport        int
	MinAnswerSupportStrict  int
	MinVerifiedAnswerTokens int

	// MinDriftOverlap is the question/answer keyword overlap required when the answer
	// touches a domain the question did not.
	MinDriftOverlap int
}

// DefaultThresholds returns the production cascade limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAnswerLength:         50,
		MinKeywordLength:        4,
		LongTokenLength:         5,
		EarlyContentLength:      500,
		MaxTitleLength:          100,
		TitleMatchScore:         5,
		ContentMatchScore:       2,
		DomainTitleBonus:        5,
		DomainContentBonus:      3,
		ConsiderScore:           7,
		SelectScore:             10,
		StrictSelectScore:       15,
		SalientTermCount:        3,
		MinKeywordMatches:       2,
		MinKeywordMatchesLarge:  3,
		LargeKeywordSet:         6,
		MinAnswerSupport:        2,
		MinAnswerSupportStrict:  3,
		MinVerifiedAnswerTokens: 3,
		MinDriftOverlap:         2,
	}
}

func (t Thresholds) minKeywordMatches(keywordSetSize int) int {
	if keywordSetSize >= t.LargeKeywordSet {
		return t.MinKeywordMatchesLarge
	}
	return t.MinKeywordMatches
}

// strictAnswer reports whether answer carries specific terms: numbers or enough acronyms.
func (t Thresholds) strictAnswer(answer string) bool {
	return len(numbers(answer)) > 0 || acronyms(answer) >= t.SalientTermCount
}

func (t Thresholds) selectScore(strict bool) int {
	if strict {
		return t.StrictSelectScore
	}
	return t.SelectScore
}

func (t Thresholds) minAnswerSupport(strict bool) int {
	if strict {
		return t.MinAnswerSupportStrict
	}
	return t.MinAnswerSupport
}

package db

// Word is a single dictionary entry: a word of a language together with the
// digit sequence that types it and how often it has been used.
type Word struct {
	ID        int64
	LangID    int
	Sequence  string
	Word      string
	Frequency int
}

const (
	// MaxFrequency is the highest frequency a row keeps after an update.
	MaxFrequency = 50000
	// FrequencyDivisor rescales a frequency that went past MaxFrequency.
	FrequencyDivisor = 10000
)

// NormalizeFrequency rescales f by FrequencyDivisor until it fits under
// MaxFrequency, and lifts non-positive values to 1. It is idempotent.
func NormalizeFrequency(f int) int {
	for f > MaxFrequency {
		f /= FrequencyDivisor
	}
	if f < 1 {
		return 1
	}
	return f
}

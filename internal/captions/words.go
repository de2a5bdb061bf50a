package captions

import "sort"

// Word is one transcribed word with times in seconds
type Word struct {
	Text       string  `json:"word" yaml:"word"`
	Start      float64 `json:"start" yaml:"start"`
	End        float64 `json:"end" yaml:"end"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Segment is a run of words, usually a sentence
type Segment struct {
	Text  string  `json:"text" yaml:"text"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Words []Word  `json:"words" yaml:"words"`
}

// Transcription is what the transcription service returns
type Transcription struct {
	Segments []Segment `json:"segments" yaml:"segments"`
	Language string    `json:"language" yaml:"language"`
	Duration float64   `json:"duration" yaml:"duration"`
}

// Words flattens all segments
func (t Transcription) Words() []Word {
	var out []Word
	for _, s := range t.Segments {
		out = append(out, s.Words...)
	}
	return out
}

// DefaultMaxWords is the window size used when VisibleWords gets max <= 0
const DefaultMaxWords = 8

// ActiveWordIndex returns the index of the word whose [Start, End] contains
// t, or -1. Words are expected in time order. When they are not, a linear
// scan picks the first word containing t.
func ActiveWordIndex(words []Word, t float64) int {
	// first word that has not ended before t
	i := sort.Search(len(words), func(i int) bool { return words[i].End >= t })
	for ; i < len(words); i++ {
		w := words[i]
		if t >= w.Start && t <= w.End {
			return i
		}
		if w.Start > t {
			break
		}
	}
	return linearActive(words, t)
}

// linearActive covers transcripts whose end times are not sorted
func linearActive(words []Word, t float64) int {
	for i, w := range words {
		if t >= w.Start && t <= w.End {
			return i
		}
	}
	return -1
}

// VisibleWords returns up to max words around the active word: the window
// starts max/2 words before it (not before 0) and runs max words (not past
// the end). No active word means no visible words.
func VisibleWords(words []Word, t float64, max int) []Word {
	if max <= 0 {
		max = DefaultMaxWords
	}
	active := ActiveWordIndex(words, t)
	if active < 0 {
		return nil
	}

	start := active - max/2
	if start < 0 {
		start = 0
	}
	end := start + max
	if end > len(words) {
		end = len(words)
	}

	out := make([]Word, end-start)
	copy(out, words[start:end])
	return out
}

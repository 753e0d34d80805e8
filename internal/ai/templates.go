package ai

import "strings"

// questionTemplate is one entry of the static fallback pool.
type questionTemplate struct {
	Question      string
	Options       []string
	CorrectAnswer int
}

// fallbackTemplates holds the per-subject pools used when generation fails.
// Keys match the default subject ids; unknown subjects use the aptitude pool.
var fallbackTemplates = map[string][]questionTemplate{
	"aptitude": {
		{
			Question:      "If a train travels 120 km in 2 hours, what is its average speed?",
			Options:       []string{"50 km/h", "60 km/h", "70 km/h", "80 km/h"},
			CorrectAnswer: 1,
		},
		{
			Question:      "What is 15% of 200?",
			Options:       []string{"25", "30", "35", "40"},
			CorrectAnswer: 1,
		},
		{
			Question:      "If x + 5 = 12, what is x?",
			Options:       []string{"5", "6", "7", "8"},
			CorrectAnswer: 2,
		},
	},
	"reasoning": {
		{
			Question:      "Complete the series: 2, 4, 8, 16, ?",
			Options:       []string{"24", "28", "32", "36"},
			CorrectAnswer: 2,
		},
		{
			Question:      "If all roses are flowers and some flowers are red, which is true?",
			Options:       []string{"All roses are red", "Some roses may be red", "No roses are red", "All flowers are roses"},
			CorrectAnswer: 1,
		},
	},
	"coding": {
		{
			Question:      "What is the time complexity of binary search?",
			Options:       []string{"O(n)", "O(log n)", "O(n²)", "O(1)"},
			CorrectAnswer: 1,
		},
		{
			Question:      "Which data structure uses LIFO principle?",
			Options:       []string{"Queue", "Stack", "Array", "Tree"},
			CorrectAnswer: 1,
		},
	},
	"technical": {
		{
			Question:      "What does HTTP stand for?",
			Options:       []string{"HyperText Transfer Protocol", "High Transfer Text Protocol", "HyperText Transmission Protocol", "High Text Transfer Protocol"},
			CorrectAnswer: 0,
		},
		{
			Question:      "Which is not a programming paradigm?",
			Options:       []string{"Object-Oriented", "Functional", "Procedural", "Sequential"},
			CorrectAnswer: 3,
		},
	},
	"verbal": {
		{
			Question:      "Choose the synonym of \"abundant\":",
			Options:       []string{"Scarce", "Plentiful", "Limited", "Rare"},
			CorrectAnswer: 1,
		},
		{
			Question:      "What is the antonym of \"ancient\"?",
			Options:       []string{"Old", "Modern", "Historic", "Traditional"},
			CorrectAnswer: 1,
		},
	},
}

func templatesFor(subjectName string) []questionTemplate {
	key := strings.ToLower(strings.TrimSpace(subjectName))
	if pool, ok := fallbackTemplates[key]; ok {
		return pool
	}
	// Subject names like "Coding Pseudo Codes" should still hit their pool.
	for id, pool := range fallbackTemplates {
		if strings.Contains(key, id) {
			return pool
		}
	}
	return fallbackTemplates["aptitude"]
}

package signal

import (
	"regexp"
	"strings"
)

var workKeywords = []string{
	// code
	"import", "def", "function", "class", "return", "const", "var", "let",
	"async", "await", "module", "package", "interface", "type",
	// academic
	"report", "essay", "thesis", "chapter", "section", "paragraph",
	"assignment", "homework", "project", "dissertation",
	// documents
	"document", "draft", "revision", "editing", "review",
	"lecture", "exam", "quiz", "study", "notes", "summary",
	// general work
	"meeting", "agenda", "task", "todo", "deadline", "due date",
	"presentation", "slides", "deck",
}

var lectureKeywords = []string{
	"lecture", "slide", "chapter", "section", "lesson",
	"unit", "module", "course", "syllabus",
}

var lecturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)slide\s+\d+`),
	regexp.MustCompile(`\d+/\d+`),
	regexp.MustCompile(`(?i)page\s+\d+\s+of\s+\d+`),
	regexp.MustCompile(`(?i)chapter\s+\d+`),
}

var mathSymbols = []string{"∫", "Σ", "∑", "θ", "α", "β", "γ", "Δ", "δ", "π", "∞", "√", "≤", "≥", "≠", "≈"}

var mathKeywords = []string{
	"proof", "theorem", "equation", "formula", "derivative",
	"integral", "matrix", "vector", "calculus", "algebra",
}

// Equation-like fragments count only when at least two occur.
var equationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-z]\s*=\s*`),
	regexp.MustCompile(`\d+\s*[+\-*/]\s*\d+`),
	regexp.MustCompile(`\([^)]+\)`),
}

// matchKeywords returns the keywords occurring in text, case-insensitively
// and as substrings.
func matchKeywords(text string, keywords []string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	return found
}

func detectLecture(text string) bool {
	if text == "" {
		return false
	}
	if len(matchKeywords(text, lectureKeywords)) > 0 {
		return true
	}
	for _, re := range lecturePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func detectMath(text string) bool {
	if text == "" {
		return false
	}
	for _, s := range mathSymbols {
		if strings.Contains(text, s) {
			return true
		}
	}
	if len(matchKeywords(text, mathKeywords)) > 0 {
		return true
	}
	for _, re := range equationPatterns {
		if len(re.FindAllStringIndex(text, -1)) >= 2 {
			return true
		}
	}
	return false
}

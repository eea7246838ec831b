package resumeparser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const nameScanLines = 10

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		// North American: +1 (555) 123-4567, 555.123.4567, 555 123 4567
		regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`),
		// international: +44 2071 838 750
		regexp.MustCompile(`\+?[0-9]{1,3}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4}`),
	}

	educationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bbachelor['’s]*[ \t]+(?:degree[ \t]+)?(?:of[ \t]+|in[ \t]+)?([^.\n]+)`),
		regexp.MustCompile(`(?i)\bmaster['’s]*[ \t]+(?:degree[ \t]+)?(?:of[ \t]+|in[ \t]+)?([^.\n]+)`),
		regexp.MustCompile(`\b((?:[A-Z][A-Za-z&'.-]*[ \t]+)+(?:University|College))\b`),
		regexp.MustCompile(`\b(University[ \t]+of(?:[ \t]+[A-Z][A-Za-z&'.-]*)+)`),
		regexp.MustCompile(`(?i)\b(ALX[ \t]+Software[ \t]+Engineering[ \t]+Program)\b`),
	}
)

// ExtractEmails returns every email address in order of appearance.
func ExtractEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// ExtractPhoneNumbers returns every North-American match in order of appearance, then
// every international match. Both patterns may match the same number; duplicates are kept.
func ExtractPhoneNumbers(text string) []string {
	var phones []string
	for _, re := range phonePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if value := strings.TrimSpace(m); value != "" {
				phones = append(phones, value)
			}
		}
	}
	return phones
}

// ExtractEducation returns degree and institution fragments, deduplicated without regard
// to case.
func ExtractEducation(text string) []string {
	seen := make(map[string]struct{})
	var education []string
	for _, re := range educationPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			fragment := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(fragment) <= 2 {
				continue
			}
			key := strings.ToLower(fragment)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			education = append(education, fragment)
		}
	}
	return education
}

// ExtractName guesses the candidate name from the top of the resume. When an email is
// known, a short line without '@' matching its local part ("john.smith" -> "john smith")
// wins; otherwise the first short line without digits or '@' that is not an all-caps
// heading is used.
func ExtractName(text, email string) string {
	lines := leadingLines(text, nameScanLines)

	if hint := nameHint(email); hint != "" {
		for _, line := range lines {
			if strings.ContainsRune(line, '@') || len(strings.Fields(line)) > 4 {
				continue
			}
			if strings.Contains(strings.ToLower(line), hint) {
				return line
			}
		}
	}

	for _, line := range lines {
		if isUpperLine(line) || len(strings.Fields(line)) > 4 {
			continue
		}
		if strings.ContainsRune(line, '@') || strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			continue
		}
		if strings.IndexFunc(line, unicode.IsLetter) < 0 {
			continue
		}
		return line
	}
	return ""
}

func nameHint(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	hint := strings.NewReplacer(".", " ", "_", " ").Replace(local)
	return strings.ToLower(strings.Join(strings.Fields(hint), " "))
}

func leadingLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}
	return lines
}

func isUpperLine(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

package resumeparser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoSkillsSentinel is returned as the only skill when nothing was recognised, so a parsed
// resume with no skills can be told apart from one that was never parsed.
const NoSkillsSentinel = "No specific skills identified - please review manually"

// SkillCategory is one named group of the skill taxonomy.
type SkillCategory struct {
	Name   string
	Skills []string
}

var skillTaxonomy = []SkillCategory{
	{Name: "tech", Skills: []string{
		"python", "java", "javascript", "typescript", "c++", "c#", "php", "ruby",
		"react", "vue.js", "angular", "node.js", "express", "django", "flask",
		"sql", "mysql", "postgresql", "mongodb", "redis", "git", "docker", "aws",
	}},
	{Name: "business", Skills: []string{
		"project management", "leadership", "excel", "powerpoint", "accounting",
		"financial analysis", "budgeting", "strategic planning",
	}},
	{Name: "marketing", Skills: []string{
		"digital marketing", "social media", "seo", "content marketing", "analytics",
	}},
	{Name: "general", Skills: []string{
		"communication", "problem solving", "teamwork", "microsoft office",
	}},
}

var allSkills = func() []string {
	var out []string
	for _, c := range skillTaxonomy {
		out = append(out, c.Skills...)
	}
	return out
}()

// SkillCategories returns a copy of the taxonomy in its canonical order.
func SkillCategories() []SkillCategory {
	out := make([]SkillCategory, len(skillTaxonomy))
	for i, c := range skillTaxonomy {
		out[i] = SkillCategory{Name: c.Name, Skills: append([]string(nil), c.Skills...)}
	}
	return out
}

// AllSkills returns every taxonomy skill, category by category.
func AllSkills() []string {
	return append([]string(nil), allSkills...)
}

var (
	// a skills heading must start the line and be followed by a colon or the line end
	skillsHeadingPattern = regexp.MustCompile(`(?im)^[ \t]*(?:technical[ \t]+skills?|core[ \t]+competenc(?:ies|y)|skills?)(?:[ \t]*:|[ \t]*$)`)
	skillSeparators      = regexp.MustCompile(`[,;|\-\n•●▪◦·*]`)
)

const bulletCutset = "-•●▪◦·* \t\r"

// ExtractSkills combines a taxonomy keyword sweep with the entries listed under skills
// headings. Duplicates are dropped case-insensitively, keeping the first spelling seen.
func ExtractSkills(text string) []string {
	seen := make(map[string]struct{})
	var skills []string
	add := func(s string) {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		skills = append(skills, s)
	}

	lower := strings.ToLower(text)
	for _, skill := range allSkills {
		if strings.Contains(lower, skill) {
			add(skill)
		}
	}

	for _, section := range skillSections(text) {
		for _, item := range skillSeparators.Split(section, -1) {
			cleaned := strings.TrimLeft(strings.TrimSpace(item), bulletCutset)
			cleaned = strings.TrimSpace(cleaned)
			if n := utf8.RuneCountInString(cleaned); n > 2 && n < 50 {
				add(cleaned)
			}
		}
	}

	if len(skills) == 0 {
		return []string{NoSkillsSentinel}
	}
	return skills
}

// skillSections returns the body of every skills section: the rest of the heading line
// plus the following lines up to the next all-caps heading.
func skillSections(text string) []string {
	var sections []string
	for _, loc := range skillsHeadingPattern.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		lines := strings.Split(rest, "\n")

		var body []string
		for i, line := range lines {
			if i > 0 && isSectionHeading(line) {
				break
			}
			body = append(body, line)
		}
		sections = append(sections, strings.Join(body, "\n"))
	}
	return sections
}

// isSectionHeading reports whether line looks like an all-caps resume heading such as
// "EXPERIENCE" or "WORK HISTORY:". Short acronyms (SQL, AWS) and lists are not headings.
func isSectionHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.ContainsAny(trimmed, ",;|") {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(trimmed); strings.ContainsRune(bulletCutset, r) {
		return false
	}
	letters := 0
	for _, r := range trimmed {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 5 || (letters >= 2 && strings.HasSuffix(trimmed, ":"))
}

package targeting

import (
	"regexp"
	"strings"
)

// Matches evaluates a targeting specification against a visitor context.
// Pure function: every present constraint must pass (logical AND), the
// first failing constraint short-circuits, and an absent constraint imposes
// no restriction. A nil targeting or one with no constraints matches any
// context.
func Matches(t *Targeting, ctx *Context) bool {
	if t.Empty() {
		return true
	}
	if ctx == nil {
		ctx = &Context{}
	}

	if len(t.Segments) > 0 && !intersects(t.Segments, ctx.Segments) {
		return false
	}
	if len(t.DeviceTypes) > 0 && !containsString(t.DeviceTypes, ctx.DeviceType) {
		return false
	}
	if len(t.Browsers) > 0 && !browserMatches(t.Browsers, ctx.Browser) {
		return false
	}
	if len(t.Countries) > 0 && !containsString(t.Countries, ctx.Country) {
		return false
	}
	if len(t.Languages) > 0 && !containsString(t.Languages, ctx.Language) {
		return false
	}
	if t.NewUser != nil && ctx.IsNewUser != *t.NewUser {
		return false
	}
	if t.LoggedIn != nil && ctx.IsLoggedIn != *t.LoggedIn {
		return false
	}
	if len(t.URLPatterns) > 0 && !urlMatches(t.URLPatterns, ctx.URL) {
		return false
	}
	for i := range t.Rules {
		if !ruleMatches(&t.Rules[i], ctx.Custom) {
			return false
		}
	}
	return true
}

// ruleMatches evaluates one custom rule against the visitor's custom data.
// A missing field fails the rule for every operator. This fail-closed
// policy is deliberate: an unknown attribute must never widen the audience.
func ruleMatches(r *Rule, custom map[string]Value) bool {
	got, ok := custom[r.Field]
	if !ok {
		return false
	}

	switch r.Operator {
	case OpEquals:
		return got.Equal(r.Value)
	case OpNotEquals:
		return !got.Equal(r.Value)
	case OpContains:
		return strings.Contains(got.text(), r.Value.text())
	case OpGreaterThan:
		a, aok := got.numeric()
		b, bok := r.Value.numeric()
		return aok && bok && a > b
	case OpLessThan:
		a, aok := got.numeric()
		b, bok := r.Value.numeric()
		return aok && bok && a < b
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

// browserMatches passes when any targeted browser token appears as a
// substring of the visitor's browser string, case-insensitively.
func browserMatches(tokens []string, browser string) bool {
	b := strings.ToLower(browser)
	for _, tok := range tokens {
		if tok != "" && strings.Contains(b, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// urlMatches passes when any pattern matches the URL. A '*' in a pattern is
// a wildcard with match-any-substring semantics; matching is unanchored.
func urlMatches(patterns []string, url string) bool {
	for _, p := range patterns {
		re, err := compilePattern(p)
		if err != nil {
			continue
		}
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile(strings.Join(parts, ".*"))
}

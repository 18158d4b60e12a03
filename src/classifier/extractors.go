package classifier

import (
	"regexp"
	"strings"
)

var (
	quotedRe = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe    = regexp.MustCompile(`(?:https?://|www\.)[^\s"'<>]+`)
	fileRe   = regexp.MustCompile(`^[\w\-]+\.[A-Za-z][A-Za-z0-9]{0,4}$`)

	timeRe = regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?\s?(?:am|pm)|\d{1,2}:\d{2}|noon|midnight)\b`)
	dateRe = regexp.MustCompile(`\b(today|tomorrow|tonight|yesterday|` +
		`(?:next|this)\s+(?:week|month|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday)|` +
		`monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
		`(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?|` +
		`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
)

// knownApps is matched as whole words against normalized input, longest
// names first so "visual studio code" wins over "code".
var knownApps = []string{
	"visual studio code",
	"system settings",
	"google chrome",
	"activity monitor",
	"app store",
	"vs code",
	"facetime",
	"firefox",
	"spotify",
	"terminal",
	"keynote",
	"outlook",
	"discord",
	"safari",
	"chrome",
	"finder",
	"iterm",
	"slack",
	"xcode",
	"notion",
	"zoom",
}

var appRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(knownApps))
	for i, app := range knownApps {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(app) + `\b`)
	}
	return res
}()

// extractGeneric fills params from pattern-independent extractors without
// overwriting keys that are already set. raw keeps the caller's casing for
// quoted text, paths, emails and URLs; the remaining extractors read
// normalized text.
func extractGeneric(raw, normalized string, params map[string]string) {
	collapsed := strings.Join(strings.Fields(raw), " ")

	if m := quotedRe.FindStringSubmatch(collapsed); m != nil {
		setIfAbsent(params, "subject", firstGroup(m))
	}

	extractPaths(collapsed, params)

	if m := emailRe.FindString(collapsed); m != "" {
		setIfAbsent(params, "email", m)
	}
	if m := urlRe.FindString(collapsed); m != "" {
		setIfAbsent(params, "url", strings.TrimRight(m, ".,;:!?)"))
	}

	for i, re := range appRes {
		if re.MatchString(normalized) {
			setIfAbsent(params, "appName", knownApps[i])
			break
		}
	}

	if m := timeRe.FindStringSubmatch(normalized); m != nil {
		setIfAbsent(params, "time", m[1])
	}
	if m := dateRe.FindStringSubmatch(normalized); m != nil {
		setIfAbsent(params, "date", m[1])
	}
}

// extractPaths assigns file-like tokens to source and destination. A token
// after "from" is the source, after "to" or "into" the destination; the
// rest fill whichever slot is still free, source first.
func extractPaths(collapsed string, params map[string]string) {
	fields := strings.Fields(collapsed)
	var untagged []string
	for i, field := range fields {
		token := strings.Trim(field, `.,;:!?"'()“”`)
		if !isPathLike(token) {
			continue
		}

		prev := ""
		if i > 0 {
			prev = strings.ToLower(strings.Trim(fields[i-1], `.,;:!?"'`))
		}

		switch prev {
		case "from":
			setIfAbsent(params, "source", token)
		case "to", "into":
			setIfAbsent(params, "destination", token)
		default:
			untagged = append(untagged, token)
		}
	}

	for _, token := range untagged {
		if _, ok := params["source"]; !ok {
			params["source"] = token
		} else {
			setIfAbsent(params, "destination", token)
		}
	}
}

func isPathLike(token string) bool {
	if token == "" || emailRe.MatchString(token) || urlRe.MatchString(token) {
		return false
	}
	if strings.HasPrefix(token, "~/") || strings.HasPrefix(token, "./") || strings.HasPrefix(token, "../") {
		return true
	}
	if strings.Contains(token, "/") {
		// "3/15" is a date, not a path.
		return strings.IndexFunc(token, isLetter) >= 0
	}
	return fileRe.MatchString(token)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func setIfAbsent(params map[string]string, key, value string) {
	if value == "" {
		return
	}
	if _, ok := params[key]; !ok {
		params[key] = value
	}
}

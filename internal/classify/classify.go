package classify

import (
	"regexp"
	"strings"
)

// Tag identifies what a dump line means to the splitter.
type Tag int

const (
	// TagStatement is any line no other rule claims.
	TagStatement Tag = iota
	// TagHeader is a directive replayed at the top of every table artifact.
	TagHeader
	// TagWorthless is a blank line or a plain SQL comment.
	TagWorthless
	// TagDatabaseCreate is a CREATE DATABASE statement.
	TagDatabaseCreate
	// TagDatabaseSwitch is a USE statement.
	TagDatabaseSwitch
	// TagTableStart opens a CREATE TABLE body.
	TagTableStart
	// TagTableEnd is the UNLOCK TABLES that closes a table's data section.
	TagTableEnd
	// TagLowImportance is expected boilerplate that may appear outside tables.
	TagLowImportance
)

var tagNames = map[Tag]string{
	TagStatement:      "statement",
	TagHeader:         "header",
	TagWorthless:      "worthless",
	TagDatabaseCreate: "database-create",
	TagDatabaseSwitch: "database-switch",
	TagTableStart:     "table-start",
	TagTableEnd:       "table-end",
	TagLowImportance:  "low-importance",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "unknown"
}

// Rule pairs a pattern with the tag it produces.
type Rule struct {
	Tag     Tag
	Pattern *regexp.Regexp

	// HeaderOnly rules are skipped unless the caller is outside any
	// database or table context.
	HeaderOnly bool
}

// versionedSet matches a whole-line MySQL conditional comment carrying a SET,
// e.g. "/*!40101 SET NAMES utf8 */;".
var versionedSet = regexp.MustCompile(`^/\*!\d+ SET .* \*/;$`)

// Rules is the ordered classification table. The first matching rule wins.
var Rules = []Rule{
	{Tag: TagHeader, Pattern: regexp.MustCompile(`CHANGE MASTER TO`), HeaderOnly: true},
	{Tag: TagHeader, Pattern: versionedSet, HeaderOnly: true},
	{Tag: TagWorthless, Pattern: regexp.MustCompile(`^(\s*|--.*)$`)},
	{Tag: TagDatabaseCreate, Pattern: regexp.MustCompile("^CREATE DATABASE .*?`([^`]+)`.*;$")},
	{Tag: TagDatabaseSwitch, Pattern: regexp.MustCompile("^USE `([^`]+)`;$")},
	{Tag: TagTableStart, Pattern: regexp.MustCompile("^CREATE TABLE (?:IF NOT EXISTS )?`([^`]+)` \\($")},
	{Tag: TagTableEnd, Pattern: regexp.MustCompile(`^UNLOCK TABLES;$`)},
	{Tag: TagLowImportance, Pattern: versionedSet},
	{Tag: TagLowImportance, Pattern: regexp.MustCompile(`^SET (@saved_cs_client|character_set_client)\s+= `)},
}

// Result is the outcome of classifying one line.
type Result struct {
	Tag Tag

	// Name is the captured database or table name, empty for other tags.
	Name string
}

// Classify returns the tag for line. headerEligible reports whether the
// caller is outside both database and table context; header rules only
// apply when it is true.
//
// A trailing "\n" or "\r\n" is ignored, so raw lines from a reader can be
// passed unchanged.
func Classify(line string, headerEligible bool) Result {
	return ClassifyWith(Rules, line, headerEligible)
}

// ClassifyWith classifies line against a custom rule table.
func ClassifyWith(rules []Rule, line string, headerEligible bool) Result {
	text := TrimEOL(line)
	for _, rule := range rules {
		if rule.HeaderOnly && !headerEligible {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		res := Result{Tag: rule.Tag}
		if len(m) > 1 && capturesName(rule.Tag) {
			res.Name = m[1]
		}
		return res
	}
	return Result{Tag: TagStatement}
}

// TrimEOL strips one trailing line terminator.
func TrimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func capturesName(t Tag) bool {
	switch t {
	case TagDatabaseCreate, TagDatabaseSwitch, TagTableStart:
		return true
	}
	return false
}

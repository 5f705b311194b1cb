package classify

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		eligible bool
		wantTag  Tag
		wantName string
	}{
		{"versioned set as header", "/*!40101 SET NAMES utf8 */;\n", true, TagHeader, ""},
		{"versioned set after context", "/*!40101 SET NAMES utf8 */;\n", false, TagLowImportance, ""},
		{"change master as header", "CHANGE MASTER TO MASTER_LOG_FILE='mysql-bin.000001', MASTER_LOG_POS=4;\n", true, TagHeader, ""},
		{"commented change master as header", "-- CHANGE MASTER TO MASTER_LOG_FILE='x', MASTER_LOG_POS=4;\n", true, TagHeader, ""},
		{"commented change master after context", "-- CHANGE MASTER TO MASTER_LOG_FILE='x', MASTER_LOG_POS=4;\n", false, TagWorthless, ""},
		{"change master after context", "CHANGE MASTER TO MASTER_LOG_FILE='x';\n", false, TagStatement, ""},
		{"empty", "\n", true, TagWorthless, ""},
		{"whitespace", "   \t\n", false, TagWorthless, ""},
		{"no terminator", "", false, TagWorthless, ""},
		{"comment", "-- Dump completed on 2010-01-01\n", false, TagWorthless, ""},
		{"crlf comment", "-- Host: localhost\r\n", false, TagWorthless, ""},
		{"create database mysqldump", "CREATE DATABASE /*!32312 IF NOT EXISTS*/ `shop` /*!40100 DEFAULT CHARACTER SET latin1 */;\n", false, TagDatabaseCreate, "shop"},
		{"create database short", "CREATE DATABASE IF NOT EXISTS `d1`;\n", true, TagDatabaseCreate, "d1"},
		{"use", "USE `shop`;\n", false, TagDatabaseSwitch, "shop"},
		{"use crlf", "USE `shop`;\r\n", false, TagDatabaseSwitch, "shop"},
		{"use trailing garbage", "USE `shop`; -- x\n", false, TagStatement, ""},
		{"create table", "CREATE TABLE `users` (\n", false, TagTableStart, "users"},
		{"create table if not exists", "CREATE TABLE IF NOT EXISTS `users` (\n", false, TagTableStart, "users"},
		{"create table one line", "CREATE TABLE `users` (id INT);\n", false, TagStatement, ""},
		{"indented create table", "  CREATE TABLE `users` (\n", false, TagStatement, ""},
		{"unlock tables", "UNLOCK TABLES;\n", false, TagTableEnd, ""},
		{"lock tables", "LOCK TABLES `users` WRITE;\n", false, TagStatement, ""},
		{"saved cs client", "SET @saved_cs_client     = @@character_set_client;\n", false, TagLowImportance, ""},
		{"character set client", "SET character_set_client = utf8;\n", false, TagLowImportance, ""},
		{"set other", "SET @x = 1;\n", false, TagStatement, ""},
		{"insert", "INSERT INTO `users` VALUES (1,'a');\n", false, TagStatement, ""},
		{"drop table", "DROP TABLE IF EXISTS `users`;\n", false, TagStatement, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line, tt.eligible)
			assert.Equal(t, tt.wantTag, got.Tag, "tag for %q", tt.line)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	lines := []string{
		"/*!40101 SET NAMES utf8 */;\n",
		"CREATE TABLE `t1` (\n",
		"USE `d1`;\n",
		"INSERT INTO `t1` VALUES (1);\n",
	}
	for _, line := range lines {
		for _, eligible := range []bool{true, false} {
			first := Classify(line, eligible)
			for i := 0; i < 3; i++ {
				assert.Equal(t, first, Classify(line, eligible))
			}
		}
	}
}

func TestRulesOrder(t *testing.T) {
	// Header rules must precede the worthless rule so commented directives
	// can still be captured, and low-importance must come last.
	require.NotEmpty(t, Rules)
	assert.Equal(t, TagHeader, Rules[0].Tag)
	assert.True(t, Rules[0].HeaderOnly)
	assert.Equal(t, TagLowImportance, Rules[len(Rules)-1].Tag)

	seen := map[Tag]int{}
	for i, r := range Rules {
		if _, ok := seen[r.Tag]; !ok {
			seen[r.Tag] = i
		}
	}
	assert.Less(t, seen[TagHeader], seen[TagWorthless])
	assert.Less(t, seen[TagWorthless], seen[TagDatabaseCreate])
	assert.Less(t, seen[TagDatabaseCreate], seen[TagDatabaseSwitch])
	assert.Less(t, seen[TagDatabaseSwitch], seen[TagTableStart])
	assert.Less(t, seen[TagTableStart], seen[TagTableEnd])
	assert.Less(t, seen[TagTableEnd], seen[TagLowImportance])
}

func TestClassifyWithCustomRules(t *testing.T) {
	rules := []Rule{
		{Tag: TagTableEnd, Pattern: regexp.MustCompile(`^COMMIT;$`)},
	}
	assert.Equal(t, TagTableEnd, ClassifyWith(rules, "COMMIT;\n", false).Tag)
	assert.Equal(t, TagStatement, ClassifyWith(rules, "UNLOCK TABLES;\n", false).Tag)
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "table-start", TagTableStart.String())
	assert.Equal(t, "statement", TagStatement.String())
	assert.Equal(t, "unknown", Tag(99).String())
}

func TestTrimEOL(t *testing.T) {
	assert.Equal(t, "a", TrimEOL("a\n"))
	assert.Equal(t, "a", TrimEOL("a\r\n"))
	assert.Equal(t, "a", TrimEOL("a"))
	assert.Equal(t, "a\n", TrimEOL("a\n\n"))
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dumpsplit/internal/testutil"
)

var classifyDump = testutil.JoinLines(
	"/*!40101 SET NAMES utf8 */;",
	testutil.CreateDatabaseLine("shop"),
	"USE `shop`;",
	"/*!40101 SET NAMES utf8 */;",
	"CREATE TABLE `t1` (",
	"INSERT INTO `t1` VALUES (1);",
	"UNLOCK TABLES;",
	"",
)

func executeClassify(t *testing.T, format, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewClassifyCommand(&RootOptions{Format: format})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassify_Text(t *testing.T) {
	out, err := executeClassify(t, "text", classifyDump)
	require.NoError(t, err)

	want := "1\theader\t\n" +
		"2\tdatabase-create\tshop\n" +
		"3\tdatabase-switch\tshop\n" +
		"4\tlow-importance\t\n" +
		"5\ttable-start\tt1\n" +
		"6\tstatement\t\n" +
		"7\ttable-end\t\n" +
		"8\tworthless\t\n"
	assert.Equal(t, want, out)
}

func TestClassify_TagFilter(t *testing.T) {
	out, err := executeClassify(t, "text", classifyDump, "--tags", "header,table-start")
	require.NoError(t, err)
	assert.Equal(t, "1\theader\t\n5\ttable-start\tt1\n", out)
}

func TestClassify_UnknownTag(t *testing.T) {
	_, err := executeClassify(t, "text", classifyDump, "--tags", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown tag "bogus"`)
}

func TestClassify_JSON(t *testing.T) {
	out, err := executeClassify(t, "json", classifyDump, "--tags", "database-switch")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []ClassifiedLine `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []ClassifiedLine{{Line: 3, Tag: "database-switch", Name: "shop"}}, resp.Data)
}

func TestClassify_JSONEmpty(t *testing.T) {
	out, err := executeClassify(t, "json", "")
	require.NoError(t, err)
	assert.Contains(t, out, `"data": []`)
}

// A header directive inside a table is ordinary table content.
func TestClassify_HeaderRulesOutsideContextOnly(t *testing.T) {
	dump := testutil.JoinLines(
		"CREATE TABLE `t1` (",
		"/*!40101 SET NAMES utf8 */;",
		"UNLOCK TABLES;",
		"/*!40101 SET NAMES utf8 */;",
	)
	out, err := executeClassify(t, "text", dump)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2\tlow-importance\t", lines[1])
	assert.Equal(t, "4\theader\t", lines[3])
}

func TestClassify_CRLF(t *testing.T) {
	out, err := executeClassify(t, "text", "USE `d1`;\r\nUNLOCK TABLES;\r\n")
	require.NoError(t, err)
	assert.Equal(t, "1\tdatabase-switch\td1\n2\ttable-end\t\n", out)
}

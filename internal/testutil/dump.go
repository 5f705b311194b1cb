package testutil

import (
	"fmt"
	"strings"
)

// DumpBuilder assembles mysqldump-shaped text for tests.
//
// Every method appends whole lines; String joins them with "\n" and a
// trailing newline.
//
// Example:
//
//	dump := NewDump().
//		Line("/*!40101 SET NAMES utf8 */;").
//		CreateDatabase("shop").
//		Use("shop").
//		Table("users", "(1,'ann')").
//		String()
type DumpBuilder struct {
	lines []string
}

// NewDump creates an empty builder.
func NewDump() *DumpBuilder {
	return &DumpBuilder{}
}

// Line appends raw lines verbatim.
func (b *DumpBuilder) Line(lines ...string) *DumpBuilder {
	b.lines = append(b.lines, lines...)
	return b
}

// CreateDatabase appends a mysqldump CREATE DATABASE line.
func (b *DumpBuilder) CreateDatabase(name string) *DumpBuilder {
	return b.Line(CreateDatabaseLine(name))
}

// Use appends a USE line.
func (b *DumpBuilder) Use(name string) *DumpBuilder {
	return b.Line(fmt.Sprintf("USE `%s`;", name))
}

// Table appends a complete table section: comment banner, DROP, a
// multi-line CREATE TABLE, LOCK TABLES, one INSERT per row and UNLOCK TABLES.
func (b *DumpBuilder) Table(name string, rows ...string) *DumpBuilder {
	b.Line(
		"--",
		fmt.Sprintf("-- Table structure for table `%s`", name),
		"--",
		"",
	)
	b.Line(TableLines(name, rows...)...)
	return b.Line("")
}

// String renders the dump.
func (b *DumpBuilder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// CreateDatabaseLine is the CREATE DATABASE statement mysqldump emits.
func CreateDatabaseLine(name string) string {
	return fmt.Sprintf("CREATE DATABASE /*!32312 IF NOT EXISTS*/ `%s` /*!40100 DEFAULT CHARACTER SET latin1 */;", name)
}

// TableLines returns the lines from DROP TABLE through UNLOCK TABLES for one
// table, without blank lines or comments.
func TableLines(name string, rows ...string) []string {
	lines := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS `%s`;", name),
	}
	lines = append(lines, TableBody(name, rows...)...)
	return lines
}

// TableBody returns the lines from CREATE TABLE through UNLOCK TABLES
// inclusive; exactly what a table artifact holds after its header.
func TableBody(name string, rows ...string) []string {
	lines := []string{
		fmt.Sprintf("CREATE TABLE `%s` (", name),
		"  `id` int(11) NOT NULL,",
		"  PRIMARY KEY (`id`)",
		") ENGINE=InnoDB DEFAULT CHARSET=latin1;",
		fmt.Sprintf("LOCK TABLES `%s` WRITE;", name),
	}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("INSERT INTO `%s` VALUES %s;", name, row))
	}
	return append(lines, "UNLOCK TABLES;")
}

// JoinLines renders lines as file content with a trailing newline.
func JoinLines(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

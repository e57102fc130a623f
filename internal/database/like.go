package database

import "strings"

// LikeEscape follows a LIKE pattern built by Contains so both SQLite and
// PostgreSQL treat backslash as the escape character.
const LikeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a LIKE pattern matching s literally anywhere in a column.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

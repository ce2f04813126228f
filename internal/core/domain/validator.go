package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNotAllowed     = errors.New("only read-only statements are allowed")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
	ErrParseFailed    = errors.New("failed to parse SQL")
)

// PgQueryValidator guards read-only connections using PostgreSQL's own parser.
// SELECT, EXPLAIN and SHOW are permitted; everything else is rejected.
type PgQueryValidator struct{}

func NewPgQueryValidator() *PgQueryValidator {
	return &PgQueryValidator{}
}

// Validate parses the SQL and rejects anything that isn't a single read-only statement.
// Positional "?" markers are rebound to "$n" first so the parser accepts them.
func (v *PgQueryValidator) Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	tree, err := pg_query.Parse(sqlx.Rebind(sqlx.DOLLAR, trimmed))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	switch len(tree.Stmts) {
	case 0:
		return ErrEmptyQuery
	case 1:
	default:
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyQuery
	}

	switch n := stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		if n.SelectStmt.IntoClause != nil {
			return ErrNotAllowed
		}
		return nil
	case *pg_query.Node_ExplainStmt, *pg_query.Node_VariableShowStmt:
		return nil
	default:
		return ErrNotAllowed
	}
}

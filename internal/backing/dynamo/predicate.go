package dynamo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// translatePredicate renders the textual predicate into a DynamoDB
// filter expression. DynamoDB forbids inline literals, so the driver
// (not the mirror, which keeps treating predicates as opaque) has to
// understand just enough of the condition to lift literals out into
// expression attribute values.
//
// Supported grammar: `name op literal` clauses joined by AND, with ops
// =, !=, <, <=, >, >=. Literals: integers, floats, single-quoted
// strings, true/false.
func translatePredicate(predicate string) (string, map[string]string, map[string]types.AttributeValue, error) {
	clauses := strings.Split(predicate, " AND ")
	parts := make([]string, 0, len(clauses))
	names := make(map[string]string, len(clauses))
	values := make(map[string]types.AttributeValue, len(clauses))

	for i, clause := range clauses {
		name, op, lit, err := splitClause(clause)
		if err != nil {
			return "", nil, nil, fmt.Errorf("predicate %q: %w", predicate, err)
		}
		av, err := literalAttr(lit)
		if err != nil {
			return "", nil, nil, fmt.Errorf("predicate %q: %w", predicate, err)
		}
		if op == "!=" {
			op = "<>"
		}
		namePH := fmt.Sprintf("#p%d", i)
		valuePH := fmt.Sprintf(":p%d", i)
		names[namePH] = name
		values[valuePH] = av
		parts = append(parts, fmt.Sprintf("%s %s %s", namePH, op, valuePH))
	}

	return strings.Join(parts, " AND "), names, values, nil
}

var clauseOps = []string{"<=", ">=", "!=", "<>", "=", "<", ">"}

// splitClause breaks `name op literal` apart. Two-character operators
// are tried first so "<=" is not read as "<" followed by "=...".
func splitClause(clause string) (name, op, lit string, err error) {
	for _, candidate := range clauseOps {
		idx := strings.Index(clause, candidate)
		if idx < 0 {
			continue
		}
		name = strings.TrimSpace(clause[:idx])
		lit = strings.TrimSpace(clause[idx+len(candidate):])
		if name == "" || lit == "" {
			return "", "", "", fmt.Errorf("malformed clause %q", clause)
		}
		return name, candidate, lit, nil
	}
	return "", "", "", fmt.Errorf("no comparison operator in clause %q", clause)
}

// literalAttr converts a literal token to its attribute value.
func literalAttr(lit string) (types.AttributeValue, error) {
	if strings.HasPrefix(lit, "'") {
		if len(lit) < 2 || !strings.HasSuffix(lit, "'") {
			return nil, fmt.Errorf("unterminated string literal %s", lit)
		}
		body := strings.ReplaceAll(lit[1:len(lit)-1], "''", "'")
		return &types.AttributeValueMemberS{Value: body}, nil
	}
	switch lit {
	case "true":
		return &types.AttributeValueMemberBOOL{Value: true}, nil
	case "false":
		return &types.AttributeValueMemberBOOL{Value: false}, nil
	}
	if _, err := strconv.ParseFloat(lit, 64); err == nil {
		return &types.AttributeValueMemberN{Value: lit}, nil
	}
	return nil, fmt.Errorf("unsupported literal %q", lit)
}

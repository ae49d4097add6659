package fmclient

// Operator selects how a find predicate matches a field value. The Data
// API expects the operator inlined as a prefix of the field value (an
// equality match on "u1" is sent as the literal string "==u1"); that
// encoding happens only when the request body is built.
type Operator string

const (
	OpEquals         Operator = "=="
	OpBeginsWith     Operator = ""
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// Predicate matches one field against one value.
type Predicate struct {
	Field string
	Op    Operator
	Value string
}

// Eq builds an exact-match predicate.
func Eq(field, value string) Predicate {
	return Predicate{Field: field, Op: OpEquals, Value: value}
}

// Query is one entry of a find request. Predicates within a query AND
// together; multiple queries in one find OR together.
type Query []Predicate

// encode serializes the query into the Data API wire form, collapsing
// each predicate into the operator-prefixed string the server expects.
func (q Query) encode() map[string]string {
	m := make(map[string]string, len(q))
	for _, p := range q {
		m[p.Field] = string(p.Op) + p.Value
	}
	return m
}

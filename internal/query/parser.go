// Package query turns the free text of a search command into a Query.
package query

import (
	"strconv"
	"strings"
)

// DatePosted is the recency window sent verbatim to the provider.
type DatePosted string

const (
	DateAll       DatePosted = "all"
	DateToday     DatePosted = "today"
	DateThreeDays DatePosted = "3days"
)

const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 20
)

// Query is a parsed search command.
type Query struct {
	Keywords   string
	Location   string
	Limit      int
	RemoteOnly bool
	MinSalary  *int
	DatePosted DatePosted
}

// Valid reports whether the query carries any keywords after flag removal.
func (q Query) Valid() bool {
	return strings.TrimSpace(q.Keywords) != ""
}

// Parse splits args on whitespace and extracts the known flags. Tokens that
// are not flags are kept as keywords in their original order. A malformed
// --limit or --salary argument is consumed and ignored.
func Parse(args string) Query {
	q := Query{
		Limit:      DefaultLimit,
		DatePosted: DateAll,
	}

	parts := strings.Fields(args)
	var keywords []string

	for i := 0; i < len(parts); i++ {
		hasArg := i+1 < len(parts)

		switch strings.ToLower(parts[i]) {
		case "--location":
			if !hasArg {
				keywords = append(keywords, parts[i])
				continue
			}
			i++
			q.Location = parts[i]
		case "--limit":
			if !hasArg {
				keywords = append(keywords, parts[i])
				continue
			}
			i++
			if n, err := strconv.Atoi(parts[i]); err == nil {
				q.Limit = Clamp(n, MinLimit, MaxLimit)
			}
		case "--salary":
			if !hasArg {
				keywords = append(keywords, parts[i])
				continue
			}
			i++
			if n, err := strconv.Atoi(parts[i]); err == nil {
				q.MinSalary = &n
			}
		case "--remote":
			q.RemoteOnly = true
		case "--recent":
			q.DatePosted = DateToday
		case "--week":
			q.DatePosted = DateThreeDays
		default:
			keywords = append(keywords, parts[i])
		}
	}

	q.Keywords = strings.Join(keywords, " ")
	return q
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

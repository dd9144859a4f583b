package utils

import "strings"

// Team-name matching against external score feeds. Provider naming is
// inconsistent ("Man United", "Manchester Utd", "Manchester United FC"), so
// matching is case-insensitive and tolerates partial names. Candidates are
// ranked exact > prefix > substring, and ties between equally-ranked
// candidates are broken by the longest exact overlap; if two candidates still
// tie the match is reported ambiguous and the caller must skip it rather than
// risk pairing "Real Madrid" with "Real Sociedad".

// MatchRank classifies how a candidate name matched the query
type MatchRank int

const (
	RankNone MatchRank = iota
	RankSubstring
	RankPrefix
	RankExact
)

// TeamMatch is one ranked candidate
type TeamMatch struct {
	Index int // position in the candidate slice
	Name  string
	Rank  MatchRank
}

// rankNames scores candidate against query, both already normalized
func rankNames(query, candidate string) MatchRank {
	switch {
	case candidate == query:
		return RankExact
	case strings.HasPrefix(candidate, query) || strings.HasPrefix(query, candidate):
		return RankPrefix
	case strings.Contains(candidate, query) || strings.Contains(query, candidate):
		return RankSubstring
	default:
		return RankNone
	}
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchTeamName finds the candidate that best matches name. The second return
// is false when nothing matched at all; ambiguous is true when two candidates
// matched at the same rank and overlap length, in which case the first return
// value must not be trusted.
func MatchTeamName(name string, candidates []string) (best TeamMatch, found bool, ambiguous bool) {
	query := normalizeName(name)
	if query == "" {
		return TeamMatch{}, false, false
	}

	bestOverlap := 0
	tied := false
	for i, c := range candidates {
		cand := normalizeName(c)
		rank := rankNames(query, cand)
		if rank == RankNone {
			continue
		}
		overlap := len(cand)
		if len(query) < overlap {
			overlap = len(query)
		}
		switch {
		case !found, rank > best.Rank, rank == best.Rank && overlap > bestOverlap:
			best = TeamMatch{Index: i, Name: c, Rank: rank}
			bestOverlap = overlap
			found = true
			tied = false
		case rank == best.Rank && overlap == bestOverlap:
			tied = true
		}
	}
	return best, found, found && tied
}

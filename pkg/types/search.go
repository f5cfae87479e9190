package types

// SearchOptions narrows a Connection.Search.
type SearchOptions struct {
	// Path points at the container to search. Empty searches the document.
	Path string
	// Target is a path evaluated on each entry to obtain the string to rank.
	// Empty ranks the entries themselves, or the keys of a mapping.
	Target string
	// Amount keeps only the best Amount matches when positive.
	Amount int
	// CaseSensitive disables lower-casing of the term and the candidates.
	CaseSensitive bool
}

// Match is a single ranked candidate.
type Match struct {
	// Key is the key or index of the entry the candidate came from.
	Key string `json:"key"`
	// Target is the candidate string that was rated.
	Target string `json:"target"`
	// Rating is the similarity in the range [0, 100].
	Rating float64 `json:"rating"`
}

// SearchResult is the ranked outcome of a search.
type SearchResult struct {
	// Matches are ordered by descending rating.
	Matches []Match `json:"matches"`
	// Best is the highest rated match.
	Best Match `json:"best"`
	// Path holds the segments of the searched container.
	Path []string `json:"path"`
	// Target echoes SearchOptions.Target.
	Target string `json:"target,omitempty"`
}

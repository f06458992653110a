package domain

import "time"

// SearchState is the last committed search text of a cabinet page.
type SearchState struct {
	Text            string
	LastCommittedAt time.Time
}

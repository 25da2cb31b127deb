package extract

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IDSet hands out record identifiers that are unique within one result and
// reproducible across scrapes of the same content.
type IDSet struct {
	scrapedAt time.Time
	seen      map[string]struct{}
}

// NewIDSet creates an IDSet for a scrape taken at scrapedAt.
func NewIDSet(scrapedAt time.Time) *IDSet {
	return &IDSet{scrapedAt: scrapedAt.UTC(), seen: make(map[string]struct{})}
}

// Assign returns a unique identifier for the record at position. candidate
// is the identifier read from the markup and naturalKey the record's source
// URL; either may be empty. Without a candidate the id is a name-based UUID
// of naturalKey, or of position and scrape time when that is empty too. A
// collision is resolved by hashing the key together with the position.
func (s *IDSet) Assign(candidate, naturalKey string, position int) string {
	key := naturalKey
	if key == "" {
		key = "position:" + strconv.Itoa(position) + "@" + s.scrapedAt.Format(time.RFC3339Nano)
	}

	id := candidate
	if id == "" {
		id = Synthesize(key)
	}

	for attempt := 0; s.taken(id); attempt++ {
		id = Synthesize(key + "#" + strconv.Itoa(position) + "#" + strconv.Itoa(attempt))
	}

	s.seen[id] = struct{}{}
	return id
}

// Len returns the number of identifiers handed out.
func (s *IDSet) Len() int {
	return len(s.seen)
}

func (s *IDSet) taken(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Synthesize derives a deterministic identifier from key.
func Synthesize(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

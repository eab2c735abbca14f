package game

import (
	"math/rand"
	"sync"
)

// defaultTopics fixed drawing topic catalog.
var defaultTopics = []string{
	"a cat wearing a hat",
	"a rocket leaving earth",
	"a dragon eating noodles",
	"a robot walking a dog",
	"an underwater city",
	"a dancing cactus",
	"a pirate ship in a storm",
	"a snowman on vacation",
	"a giant sandwich",
	"a haunted lighthouse",
	"a turtle racing a rabbit",
	"a wizard doing laundry",
}

// TopicCatalog picks round topics pseudo-randomly from a fixed list.
type TopicCatalog struct {
	mu     sync.Mutex
	rng    *rand.Rand
	topics []string
}

// NewTopicCatalog seeds the catalog. An empty list falls back to the
// default catalog.
func NewTopicCatalog(seed int64, topics []string) *TopicCatalog {
	if len(topics) == 0 {
		topics = defaultTopics
	}
	return &TopicCatalog{
		rng:    rand.New(rand.NewSource(seed)),
		topics: topics,
	}
}

// Pick returns one topic.
func (tc *TopicCatalog) Pick() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.topics[tc.rng.Intn(len(tc.topics))]
}

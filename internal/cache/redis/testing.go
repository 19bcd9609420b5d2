package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an injected (usually mocked) rueidis client.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

package health

import (
	"context"
	"fmt"
)

// Pinger probes a dependency for reachability. Both the remote API client
// and the Postgres store satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sized reports how many creature records a cache holds.
type Sized interface {
	Len() int
}

// CacheChecker reports ready once the local creature cache holds at least
// one record. An empty cache means the fallback path cannot answer.
func CacheChecker(cache Sized) Checker {
	return Checker{
		Name: "cache",
		Check: func(context.Context) error {
			if n := cache.Len(); n == 0 {
				return fmt.Errorf("creature cache is empty")
			}
			return nil
		},
	}
}

// RemoteChecker probes the remote creature API. A failing remote does not
// stop the service from answering out of cache, but readiness surfaces it.
func RemoteChecker(api Pinger) Checker {
	return Checker{
		Name:  "pokeapi",
		Check: api.Ping,
	}
}

// PostgresChecker probes the optional Postgres-backed cache.
func PostgresChecker(db Pinger) Checker {
	return Checker{
		Name:  "postgres",
		Check: db.Ping,
	}
}

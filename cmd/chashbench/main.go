// Command chashbench drives a chashtable.Map[int, int] with a
// configurable mix of goroutines performing emplace/visit/erase,
// reporting throughput plus the table's final size.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"chashtable/chashtable"
	"chashtable/config"
	"chashtable/logger"
)

func main() {
	goroutines := flag.Int("goroutines", 8, "number of concurrent workers")
	opsPerGoroutine := flag.Int("ops", 100000, "operations per worker")
	keySpace := flag.Int("keyspace", 10000, "number of distinct keys")
	insertPct := flag.Int("insert-pct", 40, "percent of ops that are insert")
	erasePct := flag.Int("erase-pct", 10, "percent of ops that are erase; remainder is visit")
	flag.Parse()

	logger.Configure()
	cfg := config.Load()
	m := chashtable.NewMapFromConfig[int, int](cfg)

	var inserts, erases, visits, hits atomic.Int64
	var wg sync.WaitGroup
	wg.Add(*goroutines)

	start := time.Now()
	for g := 0; g < *goroutines; g++ {
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < *opsPerGoroutine; i++ {
				key := rng.Intn(*keySpace)
				switch roll := rng.Intn(100); {
				case roll < *insertPct:
					m.Set(key, key)
					inserts.Add(1)
				case roll < *insertPct+*erasePct:
					m.Delete(key)
					erases.Add(1)
				default:
					if _, ok := m.Get(key); ok {
						hits.Add(1)
					}
					visits.Add(1)
				}
			}
		}(int64(g) + 1)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := inserts.Load() + erases.Load() + visits.Load()
	fmt.Printf("workers=%d ops=%d elapsed=%v throughput=%.0f ops/s\n",
		*goroutines, total, elapsed, float64(total)/elapsed.Seconds())
	fmt.Printf("inserts=%d erases=%d visits=%d hits=%d\n",
		inserts.Load(), erases.Load(), visits.Load(), hits.Load())
	fmt.Printf("final size=%d\n", m.Len())

	logger.Info("chashbench complete: %d ops in %v (%.0f ops/s)", total, elapsed, float64(total)/elapsed.Seconds())
}

// Command meshbench runs a synthetic multi-slab workload and exposes a Prometheus endpoint and an optional pprof endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/memomesh/memomesh/internal/b36"
	"github.com/memomesh/memomesh/memo"
	"github.com/memomesh/memomesh/mesh"
	pmet "github.com/memomesh/memomesh/metrics/prom"
	"github.com/memomesh/memomesh/slab"
)

func main() {
	// ---- Flags ----
	var (
		slabs = flag.Int("slabs", 4, "number of slabs on the local mesh")
		quota = flag.Int("quota", 512, "per-slab soft residency target")
		limit = flag.Int("limit", 1024, "per-slab hard residency cap")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 70, "read percentage [0..100]")

		records  = flag.Int("records", 1_000, "number of distinct records")
		replicas = flag.Int("replicas", 1, "desired replicas per memo")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build mesh + slabs ----
	if *slabs < 1 || *slabs > slab.MaxSlabs {
		log.Fatalf("slabs must be in [1..%d]", slab.MaxSlabs)
	}
	local := mesh.NewLocal(nil)
	pool := make([]*slab.Slab, 0, *slabs)
	for i := 0; i < *slabs; i++ {
		id := b36.Encode(uint64(i))
		s, err := slab.New(slab.Options{
			ID:      id,
			Mesh:    local,
			Quota:   *quota,
			Limit:   *limit,
			Metrics: pmet.New(nil, "memomesh", "slab", prometheus.Labels{"slab": id}),
		})
		if err != nil {
			log.Fatalf("slab %q: %v", id, err)
		}
		defer func() { _ = s.Close() }()
		pool = append(pool, s)
	}

	// ---- Record id space ----
	rids := make([]string, *records)
	for i := range rids {
		rids[i] = uuid.NewString()
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	readPctVal := *readPct
	replicasVal := *replicas
	seedBase := *seed
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workersN; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG (rand.Rand is NOT goroutine-safe)
			// and a scratch map of last-written memo ids per record.
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			lastWritten := make(map[string]string)

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				s := pool[localR.Intn(len(pool))]
				rid := rids[localR.Intn(len(rids))]

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if mid, ok := lastWritten[rid]; ok {
						if _, ok := s.GetMemo(mid); ok {
							atomic.AddUint64(&hits, 1)
						} else {
							atomic.AddUint64(&misses, 1)
						}
					} else if heads := s.HeadMemoIDsForRecord(rid); len(heads) > 0 {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					// Append a new memo citing the record's current heads.
					atomic.AddUint64(&writes, 1)
					parents := s.HeadMemoIDsForRecord(rid)
					m := memo.New(s.GenChildID(), rid, parents, replicasVal)
					s.PutMemo(m)
					lastWritten[rid] = m.ID()
				}
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("slabs=%d quota=%d limit=%d workers=%d records=%d replicas=%d dur=%v seed=%d\n",
		*slabs, *quota, *limit, workersN, *records, replicasVal, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	for _, s := range pool {
		fmt.Printf("slab %s: size=%d\n", s.ID(), s.Size())
	}
}

// Package benchmark provides performance benchmarks for the request
// boundary: rate limiting, credential resolution and the full filter chain.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run only the limiter benchmarks:
//
//	go test -bench=BenchmarkRateLimit -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	go test -bench=. -benchmem -count=5 ./internal/tests/benchmark/... | tee new.txt
//	benchstat old.txt new.txt
package benchmark

// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/edwinsyarief/becs"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

type comp4 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	err := run(count, iters, entities)
	p.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run gives every round its own registry, so rounds run in parallel while
// each registry stays on one goroutine.
func run(rounds, iters, numEntities int) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for range rounds {
		g.Go(func() error {
			return round(iters, numEntities)
		})
	}
	return g.Wait()
}

func round(iters, numEntities int) error {
	r := becs.NewRegistry()
	ents := make([]becs.Entity, numEntities)
	r.CreateN(ents)
	if err := becs.InsertRange(r, ents, comp1{}); err != nil {
		return err
	}
	if err := becs.InsertRange(r, ents, comp2{V: 1, W: 1}); err != nil {
		return err
	}
	if err := becs.InsertRange(r, ents, comp3{}); err != nil {
		return err
	}
	if err := becs.InsertRange(r, ents[:numEntities/2], comp4{}); err != nil {
		return err
	}

	query := becs.NewView3[comp1, comp2, comp3](r, becs.Exclude[comp4]())
	for range iters {
		query.Each(func(c1 *comp1, c2 *comp2, _ *comp3) {
			c1.V += c2.V
			c1.W += c2.W
		})
	}
	return nil
}

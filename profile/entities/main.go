// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"fmt"
	"os"

	"github.com/edwinsyarief/becs"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	err := run(count, iters, entities)
	p.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(rounds, iters, numEntities int) error {
	ents := make([]becs.Entity, numEntities)
	for range rounds {
		r := becs.NewRegistry()
		r.Reserve(numEntities)
		view := becs.NewView2[comp1, comp2](r)

		for range iters {
			r.CreateN(ents)
			if err := becs.InsertRange(r, ents, comp1{}); err != nil {
				return err
			}
			if err := becs.InsertRange(r, ents, comp2{V: 1, W: 1}); err != nil {
				return err
			}
			view.Refresh()
			view.Each(func(c1 *comp1, c2 *comp2) {
				c1.V += c2.V
				c1.W += c2.W
			})
			r.DestroyAll(ents)
		}
	}
	return nil
}

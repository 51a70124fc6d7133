package becs

import (
	"fmt"
	"testing"
)

var benchSizes = []int{1000, 10000, 100000, 1000000}

func sizeName(size int) string {
	if size == 1000000 {
		return "1M"
	}
	return fmt.Sprintf("%dK", size/1000)
}

// Entity Benchmarks
func BenchmarkRegistryCreate(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			for b.Loop() {
				b.StopTimer()
				r := NewRegistry()
				r.Reserve(size)
				b.StartTimer()
				for range size {
					r.Create()
				}
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkRegistryCreateN(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			ents := make([]Entity, size)
			for b.Loop() {
				b.StopTimer()
				r := NewRegistry()
				b.StartTimer()
				r.CreateN(ents)
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkRegistryDestroy(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			ents := make([]Entity, size)
			for b.Loop() {
				b.StopTimer()
				r := NewRegistry()
				r.CreateN(ents)
				_ = InsertRange(r, ents, Position{})
				b.StartTimer()
				for _, e := range ents {
					r.Destroy(e)
				}
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkRegistryDestroyAll(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			ents := make([]Entity, size)
			for b.Loop() {
				b.StopTimer()
				r := NewRegistry()
				r.CreateN(ents)
				_ = InsertRange(r, ents, Position{})
				b.StartTimer()
				r.DestroyAll(ents)
			}
			b.ReportAllocs()
		})
	}
}

// Component Benchmarks
func BenchmarkEmplace(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			ents := make([]Entity, size)
			for b.Loop() {
				b.StopTimer()
				r := NewRegistry()
				r.CreateN(ents)
				b.StartTimer()
				for _, e := range ents {
					Emplace(r, e, Position{X: 1})
				}
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkGet(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			for b.Loop() {
				for _, e := range ents {
					_ = Get[Position](r, e)
				}
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkRemove(b *testing.B) {
	for _, policy := range []string{"swap_and_pop", "in_place"} {
		b.Run(policy, func(b *testing.B) {
			for _, size := range benchSizes[:3] {
				b.Run(sizeName(size), func(b *testing.B) {
					ents := make([]Entity, size)
					for b.Loop() {
						b.StopTimer()
						r := NewRegistry()
						r.CreateN(ents)
						if policy == "in_place" {
							_ = InsertRange(r, ents, Stable{})
						} else {
							_ = InsertRange(r, ents, Position{})
						}
						b.StartTimer()
						for _, e := range ents {
							if policy == "in_place" {
								Remove[Stable](r, e)
							} else {
								Remove[Position](r, e)
							}
						}
					}
					b.ReportAllocs()
				})
			}
		})
	}
}

// View Iteration Benchmarks
func BenchmarkView1Iterate(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			view := NewView1[Position](r)
			for b.Loop() {
				view.Each(func(p *Position) { p.X++ })
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkView2Iterate(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			_ = InsertRange(r, ents, Velocity{VX: 1})
			view := NewView2[Position, Velocity](r)
			for b.Loop() {
				view.Each(func(p *Position, v *Velocity) { p.X += v.VX })
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkView2All(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			_ = InsertRange(r, ents, Velocity{VX: 1})
			view := NewView2[Position, Velocity](r)
			for b.Loop() {
				for _, row := range view.All() {
					row.C1.X += row.C2.VX
				}
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkView3Exclude(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			_ = InsertRange(r, ents, Velocity{})
			_ = InsertRange(r, ents, Health{})
			_ = InsertRange(r, ents[:size/2], Tag{})
			view := NewView3[Position, Velocity, Health](r, Exclude[Tag]())
			for b.Loop() {
				view.Each(func(_ *Position, _ *Velocity, h *Health) { h.Current++ })
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkRuntimeViewIterate(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, size)
			r.CreateN(ents)
			_ = InsertRange(r, ents, Position{})
			_ = InsertRange(r, ents[:size/2], Velocity{})
			view := r.RuntimeView([]TypeInfo{TypeOf[Position](), TypeOf[Velocity]()})
			for b.Loop() {
				n := 0
				view.Each(func(Entity) { n++ })
				_ = n
			}
			b.ReportAllocs()
		})
	}
}

// Sort Benchmarks
func BenchmarkSort(b *testing.B) {
	algos := map[string]SortAlgorithm{"quick": QuickSort, "stable": StableSort}
	for name, algo := range algos {
		b.Run(name, func(b *testing.B) {
			r := NewRegistry()
			ents := make([]Entity, 100000)
			r.CreateN(ents)
			for i, e := range ents {
				Emplace(r, e, Health{Current: (i * 7919) % len(ents)})
			}
			asc := func(lhs, rhs *Health) bool { return lhs.Current < rhs.Current }
			desc := func(lhs, rhs *Health) bool { return lhs.Current > rhs.Current }
			for b.Loop() {
				Sort(r, asc, algo)
				Sort(r, desc, algo)
			}
			b.ReportAllocs()
		})
	}
}

// Command vecbench checks the lock-free index's k-NN results against
// the brute-force reference oracle over a file of (word, x, y)
// vectors, sweeping k from 1 to the size of the vector set.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"vecann/index"
	"vecann/internal/topk"
	"vecann/loader"
	"vecann/oracle"
	"vecann/vec2"
)

func main() {
	watchFlag := flag.Bool("watch", false, "keep watching the input file for appended vectors")
	repeat := flag.Int("repeat", 50, "number of random queries per k")
	seed := flag.Int64("seed", 5567, "random seed for query generation")
	qMin := flag.Float64("qmin", -10, "minimum query coordinate")
	qMax := flag.Float64("qmax", 10, "maximum query coordinate")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: vecbench [flags] <path>")
	}
	path := flag.Arg(0)

	var entries []loader.Entry
	var w *loader.Watcher
	var err error
	if *watchFlag {
		entries, w, err = loader.Watch(path)
	} else {
		entries, err = loader.ReadFile(path)
	}
	if err != nil {
		log.Fatalf("vecbench: %v", err)
	}

	vectors := make([]vec2.Vec2, len(entries))
	for i, e := range entries {
		vectors[i] = e.Vec
	}

	lfi := index.New()
	if err := lfi.Preprocess(vectors); err != nil {
		log.Fatalf("vecbench: preprocess: %v", err)
	}
	ref := oracle.New(vectors)

	if w != nil {
		go watchAppends(lfi, w, len(vectors))
	}

	fmt.Print("Checking against reference implementation: ")
	if err := compare(ref, lfi, len(vectors), *repeat, *qMin, *qMax, *seed); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("Vectors are equal!")
}

func watchAppends(lfi *index.Index, w *loader.Watcher, count int) {
	for {
		select {
		case e, ok := <-w.Entries():
			if !ok {
				return
			}
			if err := lfi.Insert(e.Vec); err != nil {
				log.Printf("vecbench: watch: %v", err)
				continue
			}
			count++
			log.Printf("vecbench: watch: %d vectors indexed", count)
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			log.Printf("vecbench: watch: %v", err)
		}
	}
}

func compare(ref *oracle.Index, lfi *index.Index, n, repeat int, qMin, qMax float64, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	for k := 1; k <= n; k++ {
		for i := 0; i < repeat; i++ {
			q := vec2.Vec2{
				X: qMin + rng.Float64()*(qMax-qMin),
				Y: qMin + rng.Float64()*(qMax-qMin),
			}
			want, err := ref.Query(q, k)
			if err != nil {
				return fmt.Errorf("reference query: %w", err)
			}
			got, err := lfi.Query(q, k)
			if err != nil {
				return fmt.Errorf("index query: %w", err)
			}
			if !sameSet(want, got) {
				return mismatchError(i, repeat, k, want, got)
			}
		}
	}
	return nil
}

func sameSet(want, got []topk.Pair[vec2.Vec2]) bool {
	if len(want) != len(got) {
		return false
	}
	counts := make(map[vec2.Vec2]int, len(want))
	for _, p := range want {
		counts[p.Value]++
	}
	for _, p := range got {
		counts[p.Value]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}

func mismatchError(i, repeat, k int, want, got []topk.Pair[vec2.Vec2]) error {
	msg := fmt.Sprintf("(i=%d/%d, k=%d) Vectors are not equal!\nExpected:\n", i, repeat, k)
	for _, p := range want {
		msg += fmt.Sprintf("%g %g\n", p.Value.X, p.Value.Y)
	}
	msg += "Received:\n"
	for _, p := range got {
		msg += fmt.Sprintf("%g %g\n", p.Value.X, p.Value.Y)
	}
	return fmt.Errorf("%s", msg)
}

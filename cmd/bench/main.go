package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/markwrite"
	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/persist"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to create")
	adapter := flag.String("adapter", "fs", "Storage adapter: fs, sqlite or memory")
	debounce := flag.Duration("debounce", 10*time.Millisecond, "Debounce of the async run")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "markwrite_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// Run 1: every dispatch waits for its save.
	syncDur, syncSaves := run(ctx, benchDir+"/sync", *count,
		markwrite.WithAdapter(*adapter),
		markwrite.WithLogger(logger),
	)

	// Run 2: saves coalesce in the background writer.
	asyncDur, asyncSaves := run(ctx, benchDir+"/async", *count,
		markwrite.WithAdapter(*adapter),
		markwrite.WithLogger(logger),
		markwrite.WithAsyncSave(true),
		markwrite.WithSaveDebounce(*debounce),
	)

	// Run 3: restore the last state.
	startRestore := time.Now()
	ws, err := markwrite.New(ctx, benchDir+"/async", markwrite.WithAdapter(*adapter), markwrite.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	restoreDur := time.Since(startRestore)
	restored := len(ws.State().Notes)
	_ = ws.Close(ctx)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes, %s adapter):\n", *count, *adapter)
	fmt.Printf("  Sync:    %v (%d saves)\n", syncDur, syncSaves)
	fmt.Printf("  Async:   %v (%d saves)\n", asyncDur, asyncSaves)
	fmt.Printf("  Restore: %v (%d notes)\n", restoreDur, restored)
	fmt.Printf("--------------------------------------------------\n")
}

// run creates count notes and returns the time until everything was saved.
func run(ctx context.Context, dir string, count int, opts ...markwrite.Option) (time.Duration, int64) {
	ws, err := markwrite.New(ctx, dir, opts...)
	if err != nil {
		panic(err)
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		ws.Dispatch(core.CreateNote{
			Title:   fmt.Sprintf("Note %d", i),
			Content: fmt.Sprintf("# Benchmark Note %d\nThis is a test note.", i),
		})
	}
	if err := ws.Close(ctx); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)

	saves := int64(0)
	if st, ok := ws.Persistence().State().(persist.AdapterState); ok {
		saves = st.Saves
	}
	return elapsed, saves
}

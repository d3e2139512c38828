package pmm

import (
	gosync "sync"
	"testing"

	"github.com/yutiansut/zCore/kernel/mm"
)

func TestBitmapAllocatorExhaustion(t *testing.T) {
	var alloc BitmapAllocator

	// Two disjoint regions: frames [0, 159) and [256, 512).
	alloc.insert(0, 159)
	alloc.insert(256, 256)

	var (
		totalFrames  = uint64(159 + 256)
		seen         = make(map[mm.Frame]bool)
		allocedCount uint64
	)

	for {
		frame, err := alloc.AllocFrame()
		if err != nil {
			if err == errOutOfMemory {
				break
			}
			t.Fatalf("[frame %d] unexpected allocator error: %v", allocedCount, err)
		}

		if !frame.Valid() {
			t.Fatalf("[frame %d] expected allocated frame to be valid", allocedCount)
		}

		if seen[frame] {
			t.Fatalf("frame %d allocated twice", frame)
		}
		seen[frame] = true

		if uint64(frame) >= 159 && uint64(frame) < 256 {
			t.Fatalf("allocated frame %d belongs to no inserted region", frame)
		}

		allocedCount++
	}

	if allocedCount != totalFrames {
		t.Fatalf("expected allocator to allocate %d frames; allocated %d", totalFrames, allocedCount)
	}

	if got := alloc.FreeFrameCount(); got != 0 {
		t.Fatalf("expected free frame count to be 0 after exhaustion; got %d", got)
	}
}

func TestBitmapAllocatorRoundTrip(t *testing.T) {
	var alloc BitmapAllocator
	alloc.insert(0, 64)

	origFree := alloc.FreeFrameCount()

	for i := 0; i < 32; i++ {
		frame, err := alloc.AllocFrame()
		if err != nil {
			t.Fatal(err)
		}
		alloc.FreeFrame(frame)
	}

	if got := alloc.FreeFrameCount(); got != origFree {
		t.Fatalf("expected free count to return to %d after matched alloc/free pairs; got %d", origFree, got)
	}
}

func TestBitmapAllocatorDoubleFree(t *testing.T) {
	var alloc BitmapAllocator
	alloc.insert(0, 8)

	frame, err := alloc.AllocFrame()
	if err != nil {
		t.Fatal(err)
	}
	alloc.FreeFrame(frame)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected double free to trip an assertion")
		}
	}()
	alloc.FreeFrame(frame)
}

func TestBitmapAllocatorConcurrency(t *testing.T) {
	var alloc BitmapAllocator
	alloc.insert(0, 4096)

	var (
		numWorkers     = 8
		framesByWorker = make([][]mm.Frame, numWorkers)
		wg             gosync.WaitGroup
	)

	// Each worker repeatedly allocates a batch and returns half of it.
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(worker int) {
			defer wg.Done()
			for round := 0; round < 16; round++ {
				var batch []mm.Frame
				for j := 0; j < 16; j++ {
					frame, err := alloc.AllocFrame()
					if err != nil {
						break
					}
					batch = append(batch, frame)
				}

				for j, frame := range batch {
					if j%2 == 0 {
						alloc.FreeFrame(frame)
						continue
					}
					framesByWorker[worker] = append(framesByWorker[worker], frame)
				}
			}
		}(i)
	}
	wg.Wait()

	// No frame may be held by two workers and no frame may be lost:
	// held + free must equal the inserted total.
	var held uint64
	seen := make(map[mm.Frame]bool)
	for _, frames := range framesByWorker {
		for _, frame := range frames {
			if seen[frame] {
				t.Fatalf("frame %d handed out to two workers", frame)
			}
			seen[frame] = true
			held++
		}
	}

	if free := alloc.FreeFrameCount(); held+free != 4096 {
		t.Fatalf("frames lost: %d held + %d free != 4096", held, free)
	}
}

func TestBitmapAllocatorInsertBeyondSupportedRange(t *testing.T) {
	var alloc BitmapAllocator

	// Inserting a region that extends past the supported 64 GiB range
	// only tracks the frames the bitmap covers.
	alloc.insert(maxFrames-4, 16)
	if got := alloc.FreeFrameCount(); got != 4 {
		t.Fatalf("expected 4 frames to be tracked; got %d", got)
	}

	alloc.insert(maxFrames+10, 1)
	if got := alloc.FreeFrameCount(); got != 4 {
		t.Fatalf("expected out-of-range insert to be ignored; free count is %d", got)
	}
}

package epochgc

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRetireReclaimedAfterAllEpochsRetire(t *testing.T) {
	gc := New(8)
	writer := gc.AssignSlot()
	defer writer.Release()

	reader := gc.AssignSlot()
	defer reader.Release()

	readerEpoch := reader.gc.BeginEpoch()

	var destroyed int32
	e := gc.AdvanceEpoch()
	writer.Retire(e, func() { atomic.AddInt32(&destroyed, 1) })

	gc.Recycle()
	if atomic.LoadInt32(&destroyed) != 0 {
		t.Fatal("object reclaimed while reader's begin-epoch predates retire epoch")
	}

	gc.EndEpoch(readerEpoch)
	gc.Recycle()
	if atomic.LoadInt32(&destroyed) != 1 {
		t.Fatalf("object not reclaimed after reader left its epoch: destroyed=%d", destroyed)
	}
}

func TestConcurrentAddRemoveNoUseAfterFree(t *testing.T) {
	gc := New(16)
	var wg sync.WaitGroup
	var liveReaders int32

	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		tok := gc.AssignSlot()
		defer tok.Release()
		for {
			select {
			case <-stop:
				return
			default:
			}
			e := gc.BeginEpoch()
			atomic.AddInt32(&liveReaders, 1)
			atomic.AddInt32(&liveReaders, -1)
			gc.EndEpoch(e)
		}
	}()

	writer := gc.AssignSlot()
	defer writer.Release()
	for i := 0; i < 2000; i++ {
		e := gc.AdvanceEpoch()
		writer.Retire(e, func() {})
	}
	close(stop)
	wg.Wait()
	gc.Recycle()
}

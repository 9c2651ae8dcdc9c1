package pending_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/mychessstyle/internal/app/system/actiongate"
	"github.com/dalemusser/mychessstyle/internal/app/system/pending"
)

func TestBeginEnd(t *testing.T) {
	p := pending.New(time.Minute)

	if !p.Begin("s1", actiongate.ActionAnalyzePGN) {
		t.Fatal("first Begin should succeed")
	}
	if p.Begin("s1", actiongate.ActionAnalyzePGN) {
		t.Error("second Begin for the same action should be refused")
	}
	if !p.Begin("s1", actiongate.ActionTrack) {
		t.Error("a different action should not be blocked")
	}
	if !p.Begin("s2", actiongate.ActionAnalyzePGN) {
		t.Error("a different session should not be blocked")
	}

	p.End("s1", actiongate.ActionAnalyzePGN)
	if p.InFlight("s1", actiongate.ActionAnalyzePGN) {
		t.Error("expected action cleared after End")
	}
	if !p.Begin("s1", actiongate.ActionAnalyzePGN) {
		t.Error("Begin should succeed again after End")
	}
}

func TestSnapshotFeedsGate(t *testing.T) {
	p := pending.New(time.Minute)
	p.Begin("s1", actiongate.ActionAnalyzeGames)

	s := actiongate.FormState{
		Tab:      actiongate.TabEnterUsername,
		Username: "hikaru",
		Pending:  p.Snapshot("s1"),
	}
	if !actiongate.ButtonFor(s).Disabled {
		t.Error("expected Analyze Games disabled while pending")
	}

	p.End("s1", actiongate.ActionAnalyzeGames)
	s.Pending = p.Snapshot("s1")
	if actiongate.ButtonFor(s).Disabled {
		t.Error("expected Analyze Games enabled after the request resolved")
	}
}

func TestEntriesExpire(t *testing.T) {
	p := pending.New(20 * time.Millisecond)
	p.Begin("s1", actiongate.ActionTrack)
	time.Sleep(40 * time.Millisecond)
	if p.InFlight("s1", actiongate.ActionTrack) {
		t.Error("expected stale entry to expire")
	}
}

func TestBeginConcurrent(t *testing.T) {
	p := pending.New(time.Minute)
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Begin("s1", actiongate.ActionAnalyzePGN) {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("expected exactly one Begin to win, got %d", wins)
	}
}

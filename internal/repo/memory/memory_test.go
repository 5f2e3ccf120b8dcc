package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/portalcheck/internal/report"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func sample(check string, v verdict.Verdict) *report.Report {
	return report.Build("http://localhost:3000", false, time.Now().Add(-time.Second), time.Now(),
		[]suite.StepOutcome{{Check: check, Group: "g", Step: "s", Result: verdict.Result{Verdict: v}}})
}

func TestStore_SaveLatestByID(t *testing.T) {
	ctx := context.Background()
	s := New()

	if r, err := s.Latest(ctx); err != nil || r != nil {
		t.Fatalf("empty store should return nil, nil: %v %v", r, err)
	}

	first := sample("a", verdict.Pass)
	second := sample("b", verdict.Fail)
	if err := s.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest(ctx)
	if err != nil || latest == nil || latest.ID != second.ID {
		t.Fatalf("latest wrong: %+v err=%v", latest, err)
	}

	got, err := s.ByID(ctx, first.ID)
	if err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("ByID wrong: %+v err=%v", got, err)
	}
	if missing, err := s.ByID(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("unknown id should return nil, nil")
	}

	list, err := s.List(ctx, 1)
	if err != nil || len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("list should return newest first: %+v err=%v", list, err)
	}
	if !list[0].Red {
		t.Fatalf("failed run should summarize red: %+v", list[0])
	}
}

func TestStore_Regressions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if rec, err := s.Get(ctx, "benefits list"); err != nil || rec != nil {
		t.Fatalf("no record yet should return nil, nil")
	}

	now := time.Now()
	if err := s.Set(ctx, "benefits list", true, now); err != nil {
		t.Fatal(err)
	}
	rec, err := s.Get(ctx, "benefits list")
	if err != nil || rec == nil || !rec.LastRed || rec.LastSentAt == nil {
		t.Fatalf("record wrong: %+v err=%v", rec, err)
	}

	// state update without a send keeps the old send time
	if err := s.Set(ctx, "benefits list", false, time.Time{}); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.Get(ctx, "benefits list")
	if rec.LastRed || rec.LastSentAt == nil {
		t.Fatalf("send time should survive a state-only update: %+v", rec)
	}
}

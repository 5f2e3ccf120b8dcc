package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/portalcheck/internal/repo/memory"
	"github.com/hamed0406/portalcheck/internal/report"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// ---- shared helpers ----

func runWith(check string, v verdict.Verdict, reason string) *report.Report {
	now := time.Now()
	return report.Build("http://localhost:3000", true, now.Add(-time.Second), now,
		[]suite.StepOutcome{
			{Check: check, Group: "forms", Step: "submit",
				Result: verdict.Result{Verdict: v, Reason: reason}},
		})
}

type memNotifier struct {
	n      int
	titles []string
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.n++
	m.titles = append(m.titles, title)
	return nil
}

// ---- tests ----

func TestAlerter_SendsOnRed_RespectsCooldown(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	nt := &memNotifier{}
	al := NewAlerter(store, store, nt, AlerterConfig{
		AlertOnRecovery: true,
		Cooldown:        1 * time.Minute,
		PollInterval:    10 * time.Millisecond,
	})

	if err := store.Save(ctx, runWith("forms input sanitization", verdict.Fail, "got 200, want 400")); err != nil {
		t.Fatal(err)
	}

	// first scan -> regression alert
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want 1 alert, got %d", nt.n)
	}
	if !strings.Contains(nt.titles[0], "regression") {
		t.Fatalf("unexpected title: %q", nt.titles[0])
	}

	// still red, same state -> no repeat
	if err := store.Save(ctx, runWith("forms input sanitization", verdict.Fail, "got 200, want 400")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want unchanged state to stay quiet, got %d", nt.n)
	}

	// recovery bypasses cooldown
	if err := store.Save(ctx, runWith("forms input sanitization", verdict.Pass, "")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 2 {
		t.Fatalf("want recovery alert, got %d", nt.n)
	}
	if !strings.Contains(nt.titles[1], "recovered") {
		t.Fatalf("unexpected recovery title: %q", nt.titles[1])
	}
}

func TestAlerter_FirstSeenGreenStaysQuiet(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	nt := &memNotifier{}
	al := NewAlerter(store, store, nt, AlerterConfig{AlertOnRecovery: true})

	if err := store.Save(ctx, runWith("benefits list", verdict.Pass, "")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 0 {
		t.Fatalf("first-seen green should not alert, got %d", nt.n)
	}

	// turning red later still alerts
	if err := store.Save(ctx, runWith("benefits list", verdict.Infra, "probe error: connection refused")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want one alert after flip, got %d", nt.n)
	}
}

func TestAlerter_NoRecoveryIfDisabled(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	nt := &memNotifier{}
	al := NewAlerter(store, store, nt, AlerterConfig{AlertOnRecovery: false})

	if err := store.Save(ctx, runWith("news feed", verdict.Fail, "got 500, want 200")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want red alert, got %d", nt.n)
	}

	if err := store.Save(ctx, runWith("news feed", verdict.Pass, "")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("recovery alerts disabled; got %d", nt.n)
	}

	// state was still recorded, so a second red alerts again once cooled
	if err := store.Save(ctx, runWith("news feed", verdict.Fail, "got 500, want 200")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 2 {
		t.Fatalf("want re-alert after recorded recovery, got %d", nt.n)
	}
}

func TestAlerter_SkipIsNotRed(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	nt := &memNotifier{}
	al := NewAlerter(store, store, nt, AlerterConfig{})

	if err := store.Save(ctx, runWith("news feed", verdict.Skip, "optional endpoint absent (404): /news")); err != nil {
		t.Fatal(err)
	}
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if nt.n != 0 {
		t.Fatalf("skips should never alert, got %d", nt.n)
	}
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shortscan/internal/types"
)

// scriptedEvaluator returns canned results per symbol and tracks concurrency.
type scriptedEvaluator struct {
	mu       sync.Mutex
	scores   map[string]float64
	errs     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *scriptedEvaluator) Evaluate(ctx context.Context, input types.TickerInput) (*types.Candidate, error) {
	s.calls.Add(1)
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[input.Symbol]; ok {
		return nil, err
	}
	score := 5.0
	if v, ok := s.scores[input.Symbol]; ok {
		score = v
	}
	return &types.Candidate{
		Symbol: input.Symbol,
		Score:  score,
		Rating: types.RatingModerate,
		Status: types.StatusOK,
	}, nil
}

func inputs(symbols ...string) []types.TickerInput {
	out := make([]types.TickerInput, len(symbols))
	for i, s := range symbols {
		out[i] = types.TickerInput{Symbol: s}
	}
	return out
}

func TestEmptyBatch(t *testing.T) {
	o := New(&scriptedEvaluator{}, Options{})

	result, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch must succeed: %v", err)
	}
	if result.Count != 0 || len(result.Candidates) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if result.RunAt.IsZero() {
		t.Error("expected RunAt to be stamped")
	}
}

func TestSingleTicker(t *testing.T) {
	o := New(&scriptedEvaluator{scores: map[string]float64{"ONLY": 7.5}}, Options{})

	result, err := o.Run(context.Background(), inputs("ONLY"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || result.Candidates[0].Symbol != "ONLY" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRankingOrder(t *testing.T) {
	ev := &scriptedEvaluator{scores: map[string]float64{
		"AAAA": 4.0,
		"BBBB": 9.0,
		"CCCC": 9.0,
		"DDDD": 6.5,
	}}
	o := New(ev, Options{})

	result, err := o.Run(context.Background(), inputs("AAAA", "CCCC", "DDDD", "BBBB"))
	if err != nil {
		t.Fatal(err)
	}

	got := make([]string, len(result.Candidates))
	for i, c := range result.Candidates {
		got[i] = c.Symbol
	}
	// Score descending, symbol ascending on the 9.0 tie.
	want := []string{"BBBB", "CCCC", "DDDD", "AAAA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestDedupeFirstWinsWithWarning(t *testing.T) {
	ev := &scriptedEvaluator{}
	o := New(ev, Options{})

	result, err := o.Run(context.Background(), inputs("dupe", "DUPE", " dupe ", "OTHR"))
	if err != nil {
		t.Fatal(err)
	}
	if ev.calls.Load() != 2 {
		t.Errorf("expected 2 evaluations after dedupe, got %d", ev.calls.Load())
	}

	var dupe *types.Candidate
	for i := range result.Candidates {
		if result.Candidates[i].Symbol == "DUPE" {
			dupe = &result.Candidates[i]
		}
	}
	if dupe == nil {
		t.Fatal("expected DUPE candidate")
	}
	found := false
	for _, w := range dupe.Warnings {
		if strings.Contains(w, "3 times") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate warning on DUPE, got %v", dupe.Warnings)
	}
}

func TestDroppedDuplicateRecordedOnResult(t *testing.T) {
	ev := &scriptedEvaluator{}
	o := New(ev, Options{MinChangePercent: 20.0})

	// The first DUPE occurrence is filtered on its weak day change, so the
	// later duplicates have no candidate to carry the notice.
	tickers := []types.TickerInput{
		{Symbol: "DUPE", ChangePercent: types.FloatPtr(3.0)},
		{Symbol: "DUPE"},
		{Symbol: "dupe"},
		{Symbol: "OKAY", ChangePercent: types.FloatPtr(45.0)},
	}
	result, err := o.Run(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || result.Candidates[0].Symbol != "OKAY" {
		t.Fatalf("expected only OKAY to survive, got %+v", result.Candidates)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "DUPE") && strings.Contains(w, "3 times") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a run-level duplicate notice for DUPE, got %v", result.Warnings)
	}
}

func TestPerTickerFailureIsolated(t *testing.T) {
	// One ticker rate limited, the rest evaluate normally.
	ev := &scriptedEvaluator{
		errs: map[string]error{
			"FAIL": types.NewFetchError(types.FetchRateLimited, "FAIL", errors.New("429")),
		},
	}
	o := New(ev, Options{})

	result, err := o.Run(context.Background(), inputs("GOOD", "FAIL", "ALSO"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 2 {
		t.Errorf("expected 2 candidates, got %d", result.Count)
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %v", result.Failed)
	}
	f := result.Failed[0]
	if f.Symbol != "FAIL" || f.Kind != types.FetchRateLimited {
		t.Errorf("unexpected failure record: %+v", f)
	}
}

func TestFatalErrorAbortsRun(t *testing.T) {
	ev := &scriptedEvaluator{
		errs: map[string]error{"BADK": types.ErrCredentials},
	}
	o := New(ev, Options{ConcurrencyLimit: 1})

	_, err := o.Run(context.Background(), inputs("BADK", "NEXT", "MORE"))
	if err == nil {
		t.Fatal("expected fatal error to fail the run")
	}
	if !errors.Is(err, types.ErrCredentials) {
		t.Errorf("expected credentials cause, got %v", err)
	}
}

func TestConcurrencyCap(t *testing.T) {
	symbols := make([]string, 20)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%02d", i)
	}
	ev := &scriptedEvaluator{delay: 10 * time.Millisecond}
	o := New(ev, Options{ConcurrencyLimit: 3})

	if _, err := o.Run(context.Background(), inputs(symbols...)); err != nil {
		t.Fatal(err)
	}
	if peak := ev.peak.Load(); peak > 3 {
		t.Errorf("in-flight evaluations peaked at %d, limit 3", peak)
	}
}

func TestMaxTickersCap(t *testing.T) {
	ev := &scriptedEvaluator{}
	o := New(ev, Options{MaxTickers: 2})

	result, err := o.Run(context.Background(), inputs("AAAA", "BBBB", "CCCC"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 2 {
		t.Errorf("expected 2 candidates under the cap, got %d", result.Count)
	}
}

func TestMinChangeFilter(t *testing.T) {
	ev := &scriptedEvaluator{}
	o := New(ev, Options{MinChangePercent: 20.0})

	tickers := []types.TickerInput{
		{Symbol: "BIGG", ChangePercent: types.FloatPtr(45.0)},
		{Symbol: "TINY", ChangePercent: types.FloatPtr(3.0)},
		{Symbol: "UNKN"}, // no reported change passes the filter
	}
	result, err := o.Run(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]string, 0, result.Count)
	for _, c := range result.Candidates {
		got = append(got, c.Symbol)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "BIGG" || got[1] != "UNKN" {
		t.Errorf("expected BIGG and UNKN to survive the filter, got %v", got)
	}
}

func TestMinPriceFilter(t *testing.T) {
	ev := &scriptedEvaluator{}
	o := New(ev, Options{MinPrice: 1.0})

	tickers := []types.TickerInput{
		{Symbol: "OKAY", LastPrice: types.FloatPtr(4.20)},
		{Symbol: "SUBD", LastPrice: types.FloatPtr(0.41)},
		{Symbol: "UNKN"},
	}
	result, err := o.Run(context.Background(), tickers)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range result.Candidates {
		if c.Symbol == "SUBD" {
			t.Error("sub-dollar ticker should have been filtered")
		}
	}
	if result.Count != 2 {
		t.Errorf("expected 2 candidates, got %d", result.Count)
	}
}

func TestContextCancellation(t *testing.T) {
	ev := &scriptedEvaluator{delay: 50 * time.Millisecond}
	o := New(ev, Options{ConcurrencyLimit: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := o.Run(ctx, inputs("AAAA", "BBBB", "CCCC")); err == nil {
		t.Fatal("expected cancellation error")
	}
}

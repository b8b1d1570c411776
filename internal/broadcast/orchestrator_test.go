package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"finintelbot/internal/model"
	"finintelbot/internal/store"
)

// memStore is an in-memory store.Dedup for orchestrator tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) key(ns store.Namespace, k string) string { return string(ns) + "|" + k }

func (m *memStore) Exists(_ context.Context, ns store.Namespace, k string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[m.key(ns, k)]
	return ok, nil
}

func (m *memStore) RecordIfAbsent(_ context.Context, ns store.Namespace, k, payload string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[m.key(ns, k)]; ok {
		return false, nil
	}
	m.data[m.key(ns, k)] = payload
	return true, nil
}

func (m *memStore) Close() error { return nil }

type stubFeed struct {
	items []model.NewsItem
	err   error
}

func (f *stubFeed) Fetch(context.Context) ([]model.NewsItem, error) { return f.items, f.err }

type stubCandles struct {
	series model.Series
	err    error
}

func (c *stubCandles) Fetch(context.Context) (model.Series, error) { return c.series, c.err }

type stubSignals struct {
	signals []model.Signal
}

func (s *stubSignals) Generate(model.Series, time.Time) []model.Signal { return s.signals }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) Name() string { return "test" }

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	n.sent = append(n.sent, text)
	n.mu.Unlock()
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func newsItem(n int, age time.Duration) model.NewsItem {
	return model.NewsItem{
		Title:       fmt.Sprintf("Item %d", n),
		Link:        fmt.Sprintf("https://example.com/%d", n),
		PublishedAt: testNow.Add(-age),
		Source:      "Wire",
	}
}

func newTestOrchestrator(dedup store.Dedup, feed FeedSource, candles CandleSource, signals SignalSource, targets ...*recordingNotifier) *Orchestrator {
	cfg := Config{
		FreshnessWindow: 48 * time.Hour,
		MaxPerCycle:     10,
		SignalEnabled:   true,
		Loc:             time.UTC,
	}
	o := New(cfg, dedup, feed, candles, signals, nil, nil)
	for _, t := range targets {
		o.targets = append(o.targets, t)
	}
	o.now = func() time.Time { return testNow }
	return o
}

func TestNewsCycle_DeliversAndMarks(t *testing.T) {
	dedup := newMemStore()
	sink := &recordingNotifier{}
	o := newTestOrchestrator(dedup, &stubFeed{items: []model.NewsItem{newsItem(1, time.Hour)}}, nil, nil, sink)

	o.RunNewsCycle(context.Background())

	if sink.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", sink.count())
	}
	exists, _ := dedup.Exists(context.Background(), store.NamespaceNews, "https://example.com/1")
	if !exists {
		t.Error("delivered item must be marked sent")
	}
}

func TestNewsCycle_SkipsAlreadySent(t *testing.T) {
	dedup := newMemStore()
	dedup.RecordIfAbsent(context.Background(), store.NamespaceNews, "https://example.com/1", "")
	sink := &recordingNotifier{}
	o := newTestOrchestrator(dedup, &stubFeed{items: []model.NewsItem{newsItem(1, time.Hour)}}, nil, nil, sink)

	o.RunNewsCycle(context.Background())

	if sink.count() != 0 {
		t.Errorf("already-sent item must not be redelivered, got %d sends", sink.count())
	}
}

func TestNewsCycle_FreshnessWindow(t *testing.T) {
	dedup := newMemStore()
	sink := &recordingNotifier{}
	stale := newsItem(1, 72*time.Hour) // older than 48h window
	fresh := newsItem(2, time.Hour)
	noTS := model.NewsItem{Title: "undated", Link: "https://example.com/3", Source: "Wire"}
	o := newTestOrchestrator(dedup, &stubFeed{items: []model.NewsItem{stale, fresh, noTS}}, nil, nil, sink)

	o.RunNewsCycle(context.Background())

	if sink.count() != 2 {
		t.Fatalf("expected 2 deliveries (fresh + undated), got %d", sink.count())
	}
	exists, _ := dedup.Exists(context.Background(), store.NamespaceNews, stale.Link)
	if exists {
		t.Error("stale item must not be marked sent")
	}
}

func TestNewsCycle_PerCycleCap(t *testing.T) {
	dedup := newMemStore()
	sink := &recordingNotifier{}
	var items []model.NewsItem
	for i := 0; i < 15; i++ {
		items = append(items, newsItem(i, time.Hour))
	}
	o := newTestOrchestrator(dedup, &stubFeed{items: items}, nil, nil, sink)

	o.RunNewsCycle(context.Background())

	if sink.count() != 10 {
		t.Errorf("expected cap at 10 deliveries, got %d", sink.count())
	}
}

func TestNewsCycle_MarkedSentEvenWhenAllTargetsFail(t *testing.T) {
	dedup := newMemStore()
	broken := &recordingNotifier{err: errors.New("chat unreachable")}
	o := newTestOrchestrator(dedup, &stubFeed{items: []model.NewsItem{newsItem(1, time.Hour)}}, nil, nil, broken)

	o.RunNewsCycle(context.Background())

	exists, _ := dedup.Exists(context.Background(), store.NamespaceNews, "https://example.com/1")
	if !exists {
		t.Error("item must be marked sent even when every delivery failed")
	}
}

func TestNewsCycle_TargetFailureDoesNotBlockOthers(t *testing.T) {
	dedup := newMemStore()
	broken := &recordingNotifier{err: errors.New("down")}
	healthy := &recordingNotifier{}
	o := newTestOrchestrator(dedup, &stubFeed{items: []model.NewsItem{newsItem(1, time.Hour)}}, nil, nil, broken, healthy)

	o.RunNewsCycle(context.Background())

	if healthy.count() != 1 {
		t.Errorf("healthy target must still receive the message, got %d", healthy.count())
	}
}

func TestNewsCycle_FetchErrorIsEmptyCycle(t *testing.T) {
	sink := &recordingNotifier{}
	o := newTestOrchestrator(newMemStore(), &stubFeed{err: errors.New("dns")}, nil, nil, sink)

	o.RunNewsCycle(context.Background())

	if sink.count() != 0 {
		t.Errorf("fetch failure must mean no deliveries, got %d", sink.count())
	}
}

func testSignal() model.Signal {
	return model.Signal{
		Symbol: "YM=F", Side: model.SideBuy,
		Entry: 105, Stop: 102.6, TakeProfit: 108.6, RiskReward: 1.5,
		Reason: "RSI14=60.0 ATR14=2.0",
	}
}

func TestSignalCycle_DeliversOnceAcrossCycles(t *testing.T) {
	dedup := newMemStore()
	sink := &recordingNotifier{}
	o := newTestOrchestrator(dedup, nil, &stubCandles{}, &stubSignals{signals: []model.Signal{testSignal()}}, sink)

	o.RunSignalCycle(context.Background())
	o.RunSignalCycle(context.Background())

	if sink.count() != 1 {
		t.Errorf("identical signal must be delivered once across cycles, got %d", sink.count())
	}

	key, payload := store.Fingerprint(testSignal())
	exists, _ := dedup.Exists(context.Background(), store.NamespaceSignals, key)
	if !exists {
		t.Error("signal fingerprint must be recorded")
	}
	if dedup.data["signals|"+key] != payload {
		t.Error("recorded payload must be the canonical serialization")
	}
}

func TestSignalCycle_DisabledIsNoop(t *testing.T) {
	sink := &recordingNotifier{}
	o := newTestOrchestrator(newMemStore(), nil, &stubCandles{}, &stubSignals{signals: []model.Signal{testSignal()}}, sink)
	o.cfg.SignalEnabled = false

	o.RunSignalCycle(context.Background())

	if sink.count() != 0 {
		t.Errorf("disabled signal cycle must not deliver, got %d", sink.count())
	}
}

func TestSignalCycle_CandleFetchErrorYieldsNoSignal(t *testing.T) {
	sink := &recordingNotifier{}
	gen := &stubSignals{} // would only matter if called with a series
	o := newTestOrchestrator(newMemStore(), nil, &stubCandles{err: errors.New("timeout")}, gen, sink)

	o.RunSignalCycle(context.Background())

	if sink.count() != 0 {
		t.Errorf("candle fetch failure must yield no deliveries, got %d", sink.count())
	}
}

func TestFormatNews_EscapesHTML(t *testing.T) {
	msg := FormatNews(model.NewsItem{
		Title:  "Fed <hikes> & holds",
		Link:   "https://example.com/fed",
		Source: "Wire & Co",
	})
	if !strings.Contains(msg, "Fed &lt;hikes&gt; &amp; holds") {
		t.Errorf("title must be HTML-escaped: %q", msg)
	}
	if !strings.Contains(msg, "https://example.com/fed") {
		t.Errorf("link must be included raw: %q", msg)
	}
}

func TestFormatSignal_ContainsLevels(t *testing.T) {
	msg := FormatSignal(testSignal())
	for _, want := range []string{"Buy", "105.00", "102.60", "108.60", "1.5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("signal message missing %q: %q", want, msg)
		}
	}
}

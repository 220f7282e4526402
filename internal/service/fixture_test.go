package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/implementation"
	"assembly-dashboard-be/internal/repository/memory"
	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/datasource"
	"assembly-dashboard-be/pkg/events"
)

func testTables() config.Tables {
	return config.Tables{
		Trend:              "trend2",
		PartyDomainMetrics: "party_domain_metrics",
		TextRecap:          "text_recap",
		PeopleRecap:        "people_recap",
		DataRequestRecap:   "data_request_recap",
		LawReformStats:     "law_reform_stats_row",
		QuestionStats:      "question_stats_session_rows",
		Law:                "law2",
		Speeches:           "speeches",
		News:               "news_qa",
	}
}

func fixtureSource() *datasource.MemorySource {
	src := datasource.NewMemorySource()
	src.Put("text_recap", []records.Record{
		{"회차": "415회", "위원회": "법제사법위원회", "요약": "예산 심사"},
		{"회차": "415회", "위원회": "기획재정위원회", "요약": "세법 개정"},
		{"회차": "416회", "위원회": "법제사법위원회", "요약": "검찰 개혁"},
		{"회차": "380회", "위원회": "국방위원회", "요약": "국방 예산"},
	})
	src.Put("people_recap", []records.Record{
		{"회차": "415회", "의원명": "김철수", "party": "DPK"},
		{"회차": "370회", "의원명": "이영희", "party": "PPP"},
	})
	src.Put("data_request_recap", []records.Record{
		{"회의회차": "416회", "위원회": "국방위원회", "요구의원": "박민수"},
	})
	src.Put("trend2", []records.Record{
		{"year": 2024, "quarter": 1, "label_l2": "경제", "label_l3": "금융", "rows": 3, "docs": 1, "session": 415},
		{"year": 2024, "quarter": 2, "label_l2": "경제", "label_l3": "", "rows": 1, "docs": 1, "session": 416},
		{"year": 2024, "quarter": 2, "label_l2": "국방", "label_l3": "병역", "rows": 3, "docs": 3, "session": 416},
		{"year": 2023, "quarter": 4, "label_l2": "국방", "label_l3": "병역", "rows": 2, "docs": 2, "session": 380},
	})
	src.Put("law2", []records.Record{
		{"assembly": 22, "l2": "경제", "l3": "금융", "party": "DPK", "scope": "법 개정", "count": 3},
		{"assembly": 22, "l2": "경제", "l3": "조세", "party": "PPP", "scope": "제도개선", "count": 2},
		{"assembly": 22, "l2": "국방", "l3": "병역", "party": "DPK", "scope": "규정변경", "count": 6},
		{"assembly": 21, "l2": "복지", "l3": "연금", "party": "DPK", "scope": "법개정", "count": 9},
	})
	src.Put("question_stats_session_rows", []records.Record{
		{"session_no": 415, "speaker_name": "김철수", "party": "DPK", "num_questions": 5},
		{"session_no": 415, "speaker_name": "김철수", "party": "DPK", "num_questions": 2},
		{"session_no": 415, "speaker_name": "이영희", "party": "PPP", "num_questions": 4},
		{"session_no": 416, "speaker_name": "이영희", "party": "PPP", "num_questions": 9},
	})
	src.Put("speeches", []records.Record{
		{"speech_id": 1, "date": "2024-01-10", "speech_text": "예산 심사", "speech_order": 1},
		{"speech_id": 2, "date": "2024-03-02", "speech_text": "추경 예산", "speech_order": 1},
		{"speech_id": 3, "date": "2024-03-02", "speech_text": "예산안 처리", "speech_order": 2},
		{"speech_id": 4, "date": "2024-02-01", "speech_text": "국방 현안", "speech_order": 1},
	})
	src.Put("news_qa", []records.Record{
		{"batch_id": "b1", "keyword": "예산", "created_at": "2024-03-01T00:00:00", "background": "A", "question": "q1"},
		{"batch_id": "b1", "keyword": "예산", "created_at": "2024-03-05T00:00:00", "background": "B", "question": "q2"},
		{"batch_id": "b2", "keyword": "", "created_at": "2024-03-03T00:00:00", "background": "C", "question": "Budget cut"},
		{"batch_id": "b1", "keyword": "국방", "created_at": "2024-03-05T00:00:00", "background": "D", "question": "q3"},
	})
	return src
}

func fixtureRepo(src datasource.Source) contract.AssemblyRepository {
	return implementation.NewAssemblyRepository(src)
}

func testResolver() *hierarchy.Resolver {
	return hierarchy.MustResolver(hierarchy.DefaultTermRanges())
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.EventType())
	}
	return out
}

type dashboardHarness struct {
	service   IDashboardService
	sessions  *memory.SessionRepository
	publisher *capturePublisher
}

func newDashboardHarness(t *testing.T, recap IRecapService, pageSize int) *dashboardHarness {
	t.Helper()
	machine := selection.NewMachine(testResolver())
	sessions := memory.NewSessionRepository(time.Minute, nil)
	dispatcher := engine.NewDispatcher(engine.New(machine), sessions, 8)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	pub := &capturePublisher{}
	return &dashboardHarness{
		service:   NewDashboardService(sessions, dispatcher, machine, recap, pub, pageSize, logger.NewNopLogger()),
		sessions:  sessions,
		publisher: pub,
	}
}

package dto

import (
	"net/url"

	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/query"
	"assembly-dashboard-be/pkg/dashboard/records"
)

// PageRequest is the limit/offset passthrough of the raw table endpoints.
type PageRequest struct {
	Limit  int `query:"limit" validate:"gte=0,lte=200000"`
	Offset int `query:"offset" validate:"gte=0"`
}

type RecapRequest struct {
	Limit   int    `query:"limit" validate:"gte=0,lte=200000"`
	Offset  int    `query:"offset" validate:"gte=0"`
	Session int    `query:"session_no" validate:"gte=0"`
	Meeting string `query:"meeting_no"`
}

type QuestionStatsRequest struct {
	Limit   int `query:"limit" validate:"gte=0,lte=200000"`
	Offset  int `query:"offset" validate:"gte=0"`
	Session int `query:"session_no" validate:"gte=0"`
}

// RecapTotal is the row count of one recap view in the overview.
type RecapTotal struct {
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

type OverviewResponse struct {
	Session int                   `json:"session"`
	Views   map[string]RecapTotal `json:"views"`
}

type TrendSeriesResponse struct {
	Params query.Params          `json:"params"`
	Query  string                `json:"query"`
	Series aggregate.PivotSeries `json:"series"`
}

type ComposeQueryResponse struct {
	Query string       `json:"query"`
	Pairs []query.Pair `json:"pairs"`
	Map   url.Values   `json:"map"`
}

type LawOptionsResponse struct {
	Assemblies []string            `json:"assemblies"`
	L2         []string            `json:"l2"`
	L3ByL2     map[string][]string `json:"l3_by_l2"`
}

type LawStackRequest struct {
	Assembly string `query:"assembly"`
	L2       string `query:"l2"`
	L3       string `query:"l3"`
}

type RankRequest struct {
	Session int `query:"session_no" validate:"gte=0"`
	Limit   int `query:"limit" validate:"gte=0,lte=1000"`
}

type SpeechRangeResponse struct {
	Keyword string `json:"keyword"`
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
}

type SpeechSearchRequest struct {
	Keyword       string `query:"kw" validate:"required"`
	Start         string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End           string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Limit         int    `query:"limit" validate:"gte=0,lte=5000"`
	Offset        int    `query:"offset" validate:"gte=0"`
	IncludeSeries *bool  `query:"include_series"`
}

// PagingNote reports how a paged collection ended.
type PagingNote struct {
	PageSize  int  `json:"page_size"`
	Rows      int  `json:"rows"`
	HardCap   int  `json:"hard_cap"`
	Truncated bool `json:"truncated"`
}

type SpeechSearchResponse struct {
	Keyword  string                 `json:"keyword"`
	Start    string                 `json:"start,omitempty"`
	End      string                 `json:"end,omitempty"`
	Bucket   string                 `json:"bucket"`
	Series   []aggregate.MonthCount `json:"series"`
	Speeches []records.Record       `json:"speeches"`
	Note     map[string]PagingNote  `json:"note,omitempty"`
}

type NewsIssuesRequest struct {
	Query   string `query:"q"`
	BatchID string `query:"batch_id"`
	Limit   int    `query:"limit" validate:"gte=0,lte=5000"`
}

type NewsIssueRequest struct {
	Keyword string `query:"keyword" validate:"required"`
	BatchID string `query:"batch_id"`
	Limit   int    `query:"limit" validate:"gte=0,lte=5000"`
}

// NewsIssue is one keyword group of news Q&A rows.
type NewsIssue struct {
	Keyword           string `json:"keyword"`
	QACount           int    `json:"qa_count"`
	LatestAt          string `json:"latest_at"`
	BackgroundPreview string `json:"background_preview"`
}

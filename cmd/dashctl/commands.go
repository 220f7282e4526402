package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/query"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	trendRecent   int
	trendGroup    string
	trendTerms    []int
	trendCategory string
	trendMode     string

	lawAssembly string
	lawByParty  bool

	rankSession int
	rankLimit   int

	timelineStart string
	timelineEnd   string

	newsQuery string

	trendCmd = &cobra.Command{
		Use:   "trend",
		Short: "Print the quarterly category trend matrix",
		RunE:  runTrend,
	}
	lawCmd = &cobra.Command{
		Use:   "law",
		Short: "Print law reform counts stacked by category or party",
		RunE:  runLaw,
	}
	rankCmd = &cobra.Command{
		Use:   "rank",
		Short: "Rank speakers by number of questions",
		RunE:  runRank,
	}
	timelineCmd = &cobra.Command{
		Use:   "timeline [keyword]",
		Short: "Print the monthly mention counts of a keyword in speeches",
		Args:  cobra.ExactArgs(1),
		RunE:  runTimeline,
	}
	newsCmd = &cobra.Command{
		Use:   "news",
		Short: "List news issues grouped by keyword",
		RunE:  runNews,
	}
)

func init() {
	trendCmd.Flags().IntVar(&trendRecent, "recent", 8, "Trailing number of quarters")
	trendCmd.Flags().StringVar(&trendGroup, "group", string(aggregate.ByCategory), "Grouping level: l2 or l3")
	trendCmd.Flags().IntSliceVar(&trendTerms, "assembly", nil, "Restrict to these assembly terms")
	trendCmd.Flags().StringVar(&trendCategory, "l2", "", "Parent category when grouping by l3")
	trendCmd.Flags().StringVar(&trendMode, "mode", string(query.ModeCount), "count, share or docshare")

	lawCmd.Flags().StringVar(&lawAssembly, "assembly", "22", "Assembly term, or 전체 for all")
	lawCmd.Flags().BoolVar(&lawByParty, "party", false, "Stack by party instead of category")

	rankCmd.Flags().IntVar(&rankSession, "session", 0, "Session number (0 for all)")
	rankCmd.Flags().IntVar(&rankLimit, "limit", 20, "Number of speakers to show")

	timelineCmd.Flags().StringVar(&timelineStart, "start", "", "First day, YYYY-MM-DD")
	timelineCmd.Flags().StringVar(&timelineEnd, "end", "", "Last day, YYYY-MM-DD")

	newsCmd.Flags().StringVarP(&newsQuery, "query", "q", "", "Only keywords or questions containing this text")
}

var (
	heading = color.New(color.FgCyan)
	notice  = color.New(color.FgYellow)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	services, err := loadServices()
	if err != nil {
		return err
	}
	params := query.Params{
		Terms:    trendTerms,
		Grouping: aggregate.Grouping(trendGroup),
		Period:   query.Period{RecentQuarters: trendRecent},
		Category: trendCategory,
		Mode:     query.Mode(trendMode),
	}
	res, err := services.Trend.Series(cmd.Context(), params)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, res)
	}

	heading.Fprintf(out, "trend %s\n", res.Query)
	if len(res.Series.Labels) == 0 {
		notice.Fprintln(out, "no rows in range")
		return nil
	}
	w := newTable(out)
	fmt.Fprintf(w, "label\t%s\n", strings.Join(res.Series.Periods, "\t"))
	for i, label := range res.Series.Labels {
		cells := make([]string, len(res.Series.Matrix[i]))
		for j, v := range res.Series.Matrix[i] {
			cells[j] = formatValue(v)
		}
		fmt.Fprintf(w, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func runLaw(cmd *cobra.Command, _ []string) error {
	services, err := loadServices()
	if err != nil {
		return err
	}
	var stack aggregate.StackedAggregate
	if lawByParty {
		stack, err = services.Law.StackByParty(cmd.Context(), lawAssembly)
	} else {
		stack, err = services.Law.StackByCategory(cmd.Context(), &dto.LawStackRequest{Assembly: lawAssembly})
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, stack)
	}

	heading.Fprintf(out, "law reforms, assembly %s\n", lawAssembly)
	w := newTable(out)
	fmt.Fprintf(w, "group\t%s\tsum\n", strings.Join(stack.Metrics, "\t"))
	for _, g := range stack.Groups {
		cells := make([]string, len(g.Totals))
		for i, v := range g.Totals {
			cells[i] = formatValue(v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.Label, strings.Join(cells, "\t"), formatValue(g.Sum))
	}
	return w.Flush()
}

func runRank(cmd *cobra.Command, _ []string) error {
	services, err := loadServices()
	if err != nil {
		return err
	}
	ranked, err := services.Question.Rank(cmd.Context(), &dto.RankRequest{Session: rankSession, Limit: rankLimit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, ranked)
	}

	w := newTable(out)
	fmt.Fprintln(w, "#\tspeaker\tparty\tquestions")
	for i, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, r.Entity, r.Subgroup, formatValue(r.Total))
	}
	return w.Flush()
}

func runTimeline(cmd *cobra.Command, args []string) error {
	services, err := loadServices()
	if err != nil {
		return err
	}
	// Only the series is printed; the speech list is kept to one row.
	res, err := services.Speech.Search(cmd.Context(), &dto.SpeechSearchRequest{
		Keyword: args[0],
		Start:   timelineStart,
		End:     timelineEnd,
		Limit:   1,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, res.Series)
	}

	if len(res.Series) == 0 {
		notice.Fprintf(out, "%q is never mentioned\n", res.Keyword)
		return nil
	}
	heading.Fprintf(out, "%q from %s to %s\n", res.Keyword, res.Start, res.End)
	peak := 0
	for _, m := range res.Series {
		peak = max(peak, m.Count)
	}
	w := newTable(out)
	for _, m := range res.Series {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("#", m.Count*40/peak)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", m.Month, m.Count, bar)
	}
	return w.Flush()
}

func runNews(cmd *cobra.Command, _ []string) error {
	services, err := loadServices()
	if err != nil {
		return err
	}
	issues, err := services.News.Issues(cmd.Context(), &dto.NewsIssuesRequest{Query: newsQuery})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, issues)
	}

	w := newTable(out)
	fmt.Fprintln(w, "keyword\tq&a\tlatest\tbackground")
	for _, is := range issues {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", is.Keyword, is.QACount, is.LatestAt, is.BackgroundPreview)
	}
	return w.Flush()
}

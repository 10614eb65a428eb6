package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"buyersdesk/listing"
	"buyersdesk/query"
	"buyersdesk/recent"
	"buyersdesk/search"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type searchOptions struct {
	status     string
	minPrice   string
	maxPrice   string
	withinDays int
	sortField  string
	sortOrder  string
	page       int
	pageSize   int
	offline    string
}

var searchOpts searchOptions

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search listings",
	Long: `Runs one listing search and prints the requested page.

Text matches address, suburb, agent and poster names. Price bounds accept
loose input such as "$650,000"; a bound that cannot be read is ignored.

Example:
  desk search smith --status active --max-price 800000 --sort price --order asc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func registerSearchFlags(f *pflag.FlagSet) {
	f.StringVar(&searchOpts.status, "status", "", `status filter ("all", "deleted" or a listing status)`)
	f.StringVar(&searchOpts.minPrice, "min-price", "", "lower price bound")
	f.StringVar(&searchOpts.maxPrice, "max-price", "", "upper price bound")
	f.IntVar(&searchOpts.withinDays, "within-days", 0, "only listings posted in the last N days")
	f.StringVar(&searchOpts.sortField, "sort", query.DefaultSortField, "sort field")
	f.StringVar(&searchOpts.sortOrder, "order", string(query.Desc), "sort order (asc or desc)")
	f.IntVar(&searchOpts.page, "page", 1, "page number")
	f.IntVar(&searchOpts.pageSize, "page-size", 0, "results per page (defaults to config)")
	f.StringVar(&searchOpts.offline, "offline", "", "search a JSON export of listings instead of the API")
}

func (o searchOptions) state(text string, defaultPageSize int) query.State {
	s := query.DefaultState()
	s.SearchText = strings.TrimSpace(text)
	s.Status = o.status
	s.MinPrice = query.CoerceBound("minPrice", o.minPrice)
	s.MaxPrice = query.CoerceBound("maxPrice", o.maxPrice)
	if o.withinDays > 0 {
		days := o.withinDays
		s.PostedWithinDays = &days
	}
	s.SortField = o.sortField
	s.SortDirection = query.Direction(strings.ToLower(o.sortOrder))
	s.Page = o.page
	s.PageSize = o.pageSize
	if s.PageSize <= 0 {
		s.PageSize = defaultPageSize
	}
	return s.Normalize()
}

func runSearch(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	}

	fetcher, err := newFetcher(searchOpts.offline)
	if err != nil {
		return err
	}

	snap, err := searchOnce(cmd.Context(), fetcher, searchOpts.state(text, cfg.Search.PageSize), recentStore())
	if err != nil {
		return err
	}
	return printPage(cmd.OutOrStdout(), snap)
}

func newFetcher(offline string) (query.Fetcher, error) {
	if offline == "" {
		httpClient := &http.Client{Timeout: cfg.SearchTimeout()}
		return search.NewClient(cfg.Search.BaseURL, httpClient).WithLogger(logger.Named("client")), nil
	}

	records, err := loadExport(offline)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded export", zap.String("path", offline), zap.Int("records", len(records)))
	return query.NewLocalFetcher(records), nil
}

// loadExport reads either a bare JSON array of listings or a saved search
// response.
func loadExport(path string) ([]listing.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var records []listing.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var resp search.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode export %s: %w", path, err)
	}
	return resp.Results, nil
}

// newSession builds a query session with the configured debounce.
func newSession(fetcher query.Fetcher, store *recent.Store) *search.Session {
	return search.NewSession(fetcher).
		WithDebounce(cfg.SearchDebounce()).
		WithRecent(store).
		WithLogger(logger.Named("session"))
}

// searchOnce submits state through a query session and waits for it to
// settle.
func searchOnce(ctx context.Context, fetcher query.Fetcher, state query.State, store *recent.Store) (search.Snapshot, error) {
	var failure error
	sess := newSession(fetcher, store).
		WithState(state).
		WithNotifier(search.NotifierFunc(func(message string, err error) {
			failure = fmt.Errorf("%s: %w", message, err)
		}))
	defer sess.Close()

	done := make(chan struct{})
	go func() {
		sess.Submit()
		sess.Wait()
		close(done)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-done:
	case <-ctx.Done():
		return search.Snapshot{}, ctx.Err()
	}

	snap := sess.Snapshot()
	if snap.Phase == search.PhaseFailed {
		if failure != nil {
			return snap, failure
		}
		return snap, snap.Err
	}
	return snap, nil
}

func printPage(w io.Writer, snap search.Snapshot) error {
	page := snap.Page
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "No listings found (%d on the desk).\n", page.AllCount)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPRICE\tSTATUS\tDECISION\tAGENT")
	for _, rec := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Address,
			formatPrice(rec.Price),
			rec.Status,
			orDash(string(rec.Decision)),
			orDash(deref(rec.AgentName)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d matching, %d total)\n",
		snap.PageQuery.Page, page.TotalPages, page.TotalCount, page.AllCount)
	return nil
}

func formatPrice(p *int64) string {
	if p == nil {
		return "-"
	}
	sign, abs := "", uint64(*p)
	if *p < 0 {
		// uint64 negation keeps math.MinInt64 exact.
		sign, abs = "-", -abs
	}
	digits := strconv.FormatUint(abs, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

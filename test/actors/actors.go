// Package actors runs concurrent workloads against the listing desk services
// for the stress test.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"buyersdesk/brief"
	"buyersdesk/listing"
	"buyersdesk/query"

	"github.com/jackc/pgx/v5/pgconn"
)

var suburbs = []string{"Albury", "Wodonga", "Lavington", "Thurgoona", "Corowa"}

func pause(minMS, spreadMS int) {
	time.Sleep(time.Duration(minMS+rand.Intn(spreadMS)) * time.Millisecond)
}

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

// transient reports errors caused by chaos (killed backends) rather than by
// the code under test.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57P01" {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "terminating connection") ||
		strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "unexpected EOF") ||
		strings.Contains(msg, "broken pipe")
}

// Creator keeps adding listings, some with a missing price or agent.
func Creator(ctx context.Context, svc *listing.Service, agentIDs []string, ids chan<- string, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		params := listing.CreateParams{
			Address: fmt.Sprintf("%d %s St", 1+rand.Intn(400), []string{"Smith", "Jones", "Kiewa", "Dean"}[rand.Intn(4)]),
			Suburb:  suburbs[rand.Intn(len(suburbs))],
		}
		if rand.Intn(5) != 0 {
			p := int64(250_000 + rand.Intn(1_500_000))
			params.Price = &p
		}
		if len(agentIDs) > 0 && rand.Intn(3) != 0 {
			id := agentIDs[rand.Intn(len(agentIDs))]
			params.AgentID = &id
		}
		rec, err := svc.Create(ctx, params)
		if err != nil {
			if transient(err) {
				continue
			}
			return fmt.Errorf("creator: %w", err)
		}
		select {
		case ids <- rec.ID:
		default:
		}
		pause(10, 20)
	}
}

// Toggler soft-deletes and restores listings it hears about.
func Toggler(ctx context.Context, svc *listing.Service, ids <-chan string, stop <-chan struct{}) error {
	for {
		var id string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case id = <-ids:
		}
		if _, err := svc.SoftDelete(ctx, id); err != nil && !transient(err) {
			return fmt.Errorf("toggler delete: %w", err)
		}
		if rand.Intn(2) == 0 {
			if _, err := svc.Restore(ctx, id); err != nil && !transient(err) {
				return fmt.Errorf("toggler restore: %w", err)
			}
		}
		pause(15, 30)
	}
}

// Decider triages whatever is on the first page.
func Decider(ctx context.Context, svc *listing.Service, stop <-chan struct{}) error {
	decisions := []listing.Decision{listing.DecisionPursue, listing.DecisionOnHold, listing.DecisionUndecided}
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		res, err := svc.Search(ctx, listing.Filters{PageSize: 10})
		if err != nil {
			if transient(err) {
				continue
			}
			return fmt.Errorf("decider search: %w", err)
		}
		for _, rec := range res.Items {
			_, err := svc.SetDecision(ctx, rec.ID, decisions[rand.Intn(len(decisions))])
			if err != nil && !errors.Is(err, listing.ErrNotFound) && !transient(err) {
				return fmt.Errorf("decider: %w", err)
			}
		}
		pause(30, 50)
	}
}

// Searcher runs random searches and checks every returned row against the
// in-memory predicate for the same query, plus the page bound.
func Searcher(ctx context.Context, svc *listing.Service, stop <-chan struct{}) error {
	statuses := []string{"", "active", "deleted", listing.StatusFilterAll}
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		s := query.DefaultState()
		s.Status = statuses[rand.Intn(len(statuses))]
		s.PageSize = 1 + rand.Intn(25)
		if rand.Intn(2) == 0 {
			s.SearchText = strings.ToLower(suburbs[rand.Intn(len(suburbs))])
		}
		if rand.Intn(2) == 0 {
			lo := int64(rand.Intn(1_000_000))
			hi := lo + int64(rand.Intn(800_000))
			s.MinPrice, s.MaxPrice = &lo, &hi
		}

		res, err := svc.Search(ctx, s.Filters())
		if err != nil {
			if transient(err) {
				continue
			}
			return fmt.Errorf("searcher: %w", err)
		}
		if len(res.Items) > s.PageSize {
			return fmt.Errorf("searcher: page of %d exceeds size %d", len(res.Items), s.PageSize)
		}
		match := query.BuildPredicate(s, time.Now())
		for _, rec := range res.Items {
			if !match(rec) {
				return fmt.Errorf("searcher: %s (%s, status=%s deleted=%t) does not satisfy %+v",
					rec.ID, rec.Address, rec.Status, rec.Deleted, s)
			}
		}
		pause(20, 30)
	}
}

// BriefCloser opens briefs and races to close each one twice; exactly one
// close may win.
func BriefCloser(ctx context.Context, svc *brief.Service, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		b, err := svc.Create(ctx, brief.CreateParams{
			ClientName: fmt.Sprintf("Client %d", rand.Intn(10_000)),
			Regions:    []string{suburbs[rand.Intn(len(suburbs))]},
			PriceMin:   300_000,
			PriceMax:   900_000,
		})
		if err != nil {
			if transient(err) {
				continue
			}
			return fmt.Errorf("brief create: %w", err)
		}

		errs := make(chan error, 2)
		for range 2 {
			go func() {
				_, err := svc.Close(ctx, b.ID)
				errs <- err
			}()
		}
		wins, first, second := 0, <-errs, <-errs
		for _, err := range []error{first, second} {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, brief.ErrAlreadyClosed), transient(err):
			default:
				return fmt.Errorf("brief close: %w", err)
			}
		}
		if wins > 1 {
			return fmt.Errorf("brief %s closed %d times", b.ID, wins)
		}
		pause(50, 100)
	}
}

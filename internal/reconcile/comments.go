package reconcile

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/extract"
)

// contactFieldNames lists, per extracted field, the CRM field names to try in
// order.
var contactFieldNames = map[extract.Field][]string{
	extract.FieldName: {"Contact (Main)", "Contact", "Contact 1"},
	extract.FieldEmail: {
		"Contact (Main) Email", "Contact 1 Email", "Contact 2 Email",
		"Contact 3 Email", "Contact 4 Email",
	},
	extract.FieldPhone: {
		"Contact (Main) Phone Number", "Contact 1 Phone", "Contact 2 Phone",
		"Contact 3 Phone", "Contact 4 Phone",
	},
	extract.FieldTitle: {
		"Contact (Main) Title", "Contact Title", "Contact 1 Title",
		"Contact 2 Title", "Contact 3 Title", "Contact 4 Title",
	},
}

// PreferredContactFields resolves the CRM field for each contact field. The
// second result lists contact fields with no CRM counterpart.
func PreferredContactFields(idx crm.FieldIndex) (map[extract.Field]crm.Field, []extract.Field) {
	found := make(map[extract.Field]crm.Field, len(contactFieldNames))
	var missing []extract.Field
	for _, f := range extract.Fields() {
		if cf, ok := idx.Preferred(contactFieldNames[f]...); ok {
			found[f] = cf
		} else {
			missing = append(missing, f)
		}
	}
	return found, missing
}

// CommentPlanner plans contact back-fills from record comments.
type CommentPlanner struct {
	extractor *extract.Extractor
	targets   map[extract.Field]crm.Field
}

// NewCommentPlanner returns a planner writing into targets. A nil extractor
// uses the default rules.
func NewCommentPlanner(e *extract.Extractor, targets map[extract.Field]crm.Field) *CommentPlanner {
	if e == nil {
		e = extract.Default()
	}
	return &CommentPlanner{extractor: e, targets: targets}
}

// Plan extracts a contact from text and plans one update per found field.
func (p *CommentPlanner) Plan(rec crm.Record, text string, overwrite bool) (Plan, extract.Contact) {
	plan := Plan{Record: rec}
	contact := p.extractor.Extract(text)
	for _, f := range extract.Fields() {
		target, ok := p.targets[f]
		if !ok {
			continue
		}
		planValue(&plan, target, contact.Get(f), overwrite)
	}
	return plan, contact
}

// FetchComments loads and joins every record's comments with up to
// concurrency requests in flight. The result is keyed by record ID.
func FetchComments(ctx context.Context, src crm.Source, records []crm.Record, concurrency int) (map[string]string, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(records))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, rec := range records {
		g.Go(func() error {
			comments, err := src.Comments(gctx, rec.ID)
			if err != nil {
				return eris.Wrapf(err, "reconcile: comments for %s", rec.ID)
			}
			mu.Lock()
			out[rec.ID] = strings.Join(comments, "\n")
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/sells-group/reconcile-cli/internal/crm"
)

// fakeSource is an in-memory crm.Source that records writes.
type fakeSource struct {
	mu       sync.Mutex
	records  []crm.Record
	fields   []crm.Field
	comments map[string][]string
	failOn   map[string]error // keyed by field label
	writes   []crm.Update
	types    map[string]string
	errRecs  error
}

func (f *fakeSource) Records(_ context.Context, status string) ([]crm.Record, error) {
	if f.errRecs != nil {
		return nil, f.errRecs
	}
	var out []crm.Record
	for _, r := range f.records {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) Fields(context.Context) ([]crm.Field, error) {
	return f.fields, nil
}

func (f *fakeSource) Comments(_ context.Context, id string) ([]string, error) {
	if id == "boom" {
		return nil, errors.New("comments unavailable")
	}
	return f.comments[id], nil
}

func (f *fakeSource) SetField(_ context.Context, u crm.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[u.Label()]; err != nil {
		return err
	}
	f.writes = append(f.writes, u)
	return nil
}

func (f *fakeSource) SetType(_ context.Context, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.types == nil {
		f.types = map[string]string{}
	}
	f.types[id] = name
	return nil
}

// fieldOnly hides SetType.
type fieldOnly struct {
	crm.Source
}

var employeeField = crm.Field{
	ID: "f-emp", Name: "Employee Count", Type: crm.TypeDropDown,
	Options: []crm.Option{{ID: "o1", Name: "0-25"}, {ID: "o2", Name: "26-100"}, {ID: "o3", Name: "101+"}},
}

func breweryFields() []crm.Field {
	return []crm.Field{
		{ID: "f-addr", Name: "Address", Type: "short_text"},
		{ID: "f-city", Name: "City", Type: "short_text"},
		{ID: "f-phone", Name: "Contact (Main) Phone Number", Type: "phone"},
		employeeField,
	}
}

const breweryCSV = "\ufeffCompany Name,Address,City,Phone Number Combined,Location Employee Size Actual,Location Employee Size Range\n" +
	"4 Hands Brewing Co.,1220 S 8th St,St. Louis,(314) 436-1559,45,\n" +
	"Civil Life Brewing,3714 Holt Ave,St. Louis,314.664.3221,,1 to 4\n" +
	"Earthbound Beer,2724 Cherokee St,St. Louis,n/a,,\n"

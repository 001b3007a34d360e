// Package sfaccount adapts Salesforce Accounts to crm.Source. Field IDs are
// Account API names; field names are their labels.
package sfaccount

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/pkg/salesforce"
)

// Source reads and writes Salesforce Accounts.
type Source struct {
	client      salesforce.Client
	statusField string
}

var _ crm.Source = (*Source)(nil)

// New returns a Source. statusField is the Account field Records filters
// on (default "Type").
func New(client salesforce.Client, statusField string) *Source {
	if statusField == "" {
		statusField = "Type"
	}
	return &Source{client: client, statusField: statusField}
}

// Records returns Accounts whose status field equals status.
func (s *Source) Records(ctx context.Context, status string) ([]crm.Record, error) {
	accounts, err := salesforce.FindAccountsByStatus(ctx, s.client, s.statusField, status)
	if err != nil {
		return nil, eris.Wrap(err, "salesforce source: records")
	}
	out := make([]crm.Record, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toRecord(a, status))
	}
	return out, nil
}

// Fields returns the updateable Account fields.
func (s *Source) Fields(ctx context.Context) ([]crm.Field, error) {
	desc, err := s.client.DescribeSObject(ctx, "Account")
	if err != nil {
		return nil, eris.Wrap(err, "salesforce source: fields")
	}
	out := make([]crm.Field, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		if !f.Updateable {
			continue
		}
		cf := crm.Field{ID: f.Name, Name: f.Label, Type: f.Type}
		for _, p := range f.PicklistValues {
			if !p.Active {
				continue
			}
			name := p.Label
			if name == "" {
				name = p.Value
			}
			cf.Options = append(cf.Options, crm.Option{ID: p.Value, Name: name})
		}
		out = append(out, cf)
	}
	return out, nil
}

// Comments returns the Account description as the only comment.
func (s *Source) Comments(ctx context.Context, recordID string) ([]string, error) {
	var rows []salesforce.Account
	soql := "SELECT Id, Description FROM Account WHERE Id = '" + strings.ReplaceAll(recordID, "'", `\'`) + "'"
	if err := s.client.Query(ctx, soql, &rows); err != nil {
		return nil, eris.Wrap(err, "salesforce source: comments")
	}
	var out []string
	for _, r := range rows {
		if strings.TrimSpace(r.Description) != "" {
			out = append(out, r.Description)
		}
	}
	return out, nil
}

// SetField updates one Account field.
func (s *Source) SetField(ctx context.Context, u crm.Update) error {
	if u.FieldID == "" {
		return eris.Errorf("salesforce source: update for %s has no field", u.RecordID)
	}
	return salesforce.UpdateAccount(ctx, s.client, u.RecordID, map[string]any{u.FieldID: u.Value})
}

func toRecord(a salesforce.Account, status string) crm.Record {
	values := map[string]any{
		"Type":              a.Type,
		"Website":           a.Website,
		"Phone":             a.Phone,
		"Description":       a.Description,
		"BillingStreet":     a.BillingStreet,
		"BillingCity":       a.BillingCity,
		"BillingState":      a.BillingState,
		"BillingPostalCode": a.BillingPostalCode,
	}
	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	if a.NumberOfEmployees > 0 {
		values["NumberOfEmployees"] = float64(a.NumberOfEmployees)
	}
	return crm.Record{
		ID:     a.ID,
		Name:   a.Name,
		Status: status,
		Type:   a.Type,
		Values: values,
	}
}

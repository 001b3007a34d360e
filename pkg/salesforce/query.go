package salesforce

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is the subset of Account fields the reconciler reads.
type Account struct {
	ID                string `json:"Id" salesforce:"Id"`
	Name              string `json:"Name" salesforce:"Name"`
	Type              string `json:"Type" salesforce:"Type"`
	Website           string `json:"Website" salesforce:"Website"`
	Phone             string `json:"Phone" salesforce:"Phone"`
	Description       string `json:"Description" salesforce:"Description"`
	BillingStreet     string `json:"BillingStreet" salesforce:"BillingStreet"`
	BillingCity       string `json:"BillingCity" salesforce:"BillingCity"`
	BillingState      string `json:"BillingState" salesforce:"BillingState"`
	BillingPostalCode string `json:"BillingPostalCode" salesforce:"BillingPostalCode"`
	NumberOfEmployees int    `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
}

// AccountFields are the SOQL fields selected for Account queries.
var AccountFields = []string{
	"Id", "Name", "Type", "Website", "Phone", "Description",
	"BillingStreet", "BillingCity", "BillingState", "BillingPostalCode",
	"NumberOfEmployees",
}

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// FindAccountsByStatus returns Accounts whose statusField equals status. An
// empty status returns every Account.
func FindAccountsByStatus(ctx context.Context, c Client, statusField, status string) ([]Account, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account", strings.Join(AccountFields, ", "))
	if status != "" {
		if !identRe.MatchString(statusField) {
			return nil, eris.Errorf("sf: invalid status field %q", statusField)
		}
		soql += fmt.Sprintf(" WHERE %s = '%s'", statusField, escapeSoql(status))
	}
	soql += " ORDER BY CreatedDate"

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find accounts with %s %s", statusField, status))
	}
	return accounts, nil
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

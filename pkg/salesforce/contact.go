package salesforce

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Contact is the subset of a Salesforce Contact used for exclusion.
type Contact struct {
	FirstName string       `json:"FirstName" salesforce:"FirstName"`
	LastName  string       `json:"LastName" salesforce:"LastName"`
	Account   *AccountName `json:"Account" salesforce:"Account"`
}

// AccountName is the parent Account relationship of a Contact.
type AccountName struct {
	Name string `json:"Name" salesforce:"Name"`
}

// Employer returns the contact's account name, or "".
func (c Contact) Employer() string {
	if c.Account == nil {
		return ""
	}
	return c.Account.Name
}

// QueryContacts runs soql, which must select FirstName, LastName and
// Account.Name from Contact.
func QueryContacts(ctx context.Context, c Client, soql string) ([]Contact, error) {
	if !strings.Contains(strings.ToUpper(soql), "FROM CONTACT") {
		return nil, eris.Errorf("sf: query must select from Contact: %q", soql)
	}
	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, "sf: query contacts")
	}
	return contacts, nil
}

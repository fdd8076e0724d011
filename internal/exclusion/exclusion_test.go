package exclusion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/salesforce"
)

type mockLister struct{ mock.Mock }

func (m *mockLister) ListContacted(ctx context.Context, owner string) ([]model.ContactedRecord, error) {
	args := m.Called(ctx, owner)
	recs, _ := args.Get(0).([]model.ContactedRecord)
	return recs, args.Error(1)
}

type fakeSF struct {
	contacts []salesforce.Contact
	err      error
}

func (f *fakeSF) Query(_ context.Context, _ string, out any) error {
	if f.err != nil {
		return f.err
	}
	*(out.(*[]salesforce.Contact)) = f.contacts
	return nil
}

var (
	jane = identity.KeyFor("Jane", "Doe", "Acme Inc")
	john = identity.KeyFor("John", "Roe", "Globex")
)

func TestStoreProvider(t *testing.T) {
	lister := &mockLister{}
	lister.On("ListContacted", mock.Anything, "ann").Return([]model.ContactedRecord{{Owner: "ann", Key: jane}}, nil)

	set, err := StoreProvider{Store: lister}.Keys(context.Background(), "ann")
	require.NoError(t, err)
	assert.True(t, set.Has(jane))
	assert.Len(t, set, 1)
	lister.AssertExpectations(t)
}

func TestSalesforceProvider(t *testing.T) {
	sf := &fakeSF{contacts: []salesforce.Contact{
		{FirstName: "Jane", LastName: "Doe", Account: &salesforce.AccountName{Name: "ACME, Inc."}},
		{FirstName: "", LastName: "NoFirst"},
	}}
	p := SalesforceProvider{Client: sf, SOQL: "SELECT FirstName, LastName, Account.Name FROM Contact"}

	set, err := p.Keys(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Len(t, set, 1)
	assert.True(t, set.Has(jane), "employer normalization makes keys comparable")
}

func TestUnion(t *testing.T) {
	lister := &mockLister{}
	lister.On("ListContacted", mock.Anything, "ann").Return([]model.ContactedRecord{{Key: jane}}, nil)

	u := Union{
		StoreProvider{Store: lister},
		StaticProvider{Label: "roster", Set: model.NewKeySet(john, jane)},
	}
	set, err := u.Keys(context.Background(), "ann")
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.True(t, set.Has(john))
}

func TestUnion_FailsOnProviderError(t *testing.T) {
	u := Union{
		StaticProvider{Label: "roster", Set: model.NewKeySet(john)},
		SalesforceProvider{Client: &fakeSF{err: eris.New("sf down")}, SOQL: "SELECT FirstName FROM Contact"},
	}
	_, err := u.Keys(context.Background(), "ann")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider salesforce")
}

func TestStaticProviderCopies(t *testing.T) {
	src := model.NewKeySet(jane)
	got, err := StaticProvider{Label: "x", Set: src}.Keys(context.Background(), "")
	require.NoError(t, err)
	got.Add(john)
	assert.False(t, src.Has(john))
}

func TestReadRoster_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "First Name,Last Name,Company\n" +
		"Jane,Doe,Acme Inc\n" +
		"José,Núñez,Globex\n" +
		"Jane,Doe,ACME\n" +
		",,Nobody Co\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	keys, stats, err := ReadRoster(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, RosterStats{Rows: 4, Keys: 2, Skipped: 2}, stats)
	assert.Equal(t, jane, keys[0])
	assert.Equal(t, identity.KeyFor("Jose", "Nunez", "Globex"), keys[1])
}

func TestReadRoster_XLSXFullName(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	require.NoError(t, err)
	for _, r := range [][]string{{"Name", "Account Name"}, {"John Q Roe", "Globex"}} {
		row := sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))

	keys, stats, err := ReadRoster(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Keys)
	assert.Equal(t, []model.IdentityKey{john}, keys)
}

func TestReadRoster_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := ReadRoster(context.Background(), filepath.Join(dir, "roster.txt"))
	assert.ErrorContains(t, err, "unsupported roster type")

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("email\nx@y.com\n"), 0o644))
	_, _, err = ReadRoster(context.Background(), bad)
	assert.ErrorContains(t, err, "needs employer and name columns")

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, _, err = ReadRoster(context.Background(), empty)
	assert.ErrorContains(t, err, "roster is empty")

	_, _, err = ReadRoster(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

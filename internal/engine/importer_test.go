package engine_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/engine"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockFetcher simulates the network layer.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string, cred engine.Credentials) (io.ReadCloser, error) {
	args := m.Called(ctx, url, cred)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

const addressBook = `BEGIN:VCARD
VERSION:4.0
FN:Ann Example
TEL;TYPE=cell:+33 6 12 34 56 78
BDAY:1990-03-05
END:VCARD
BEGIN:VCARD
VERSION:3.0
N:Bo;Jo;;;
TEL:555-0101
BDAY:--0229
END:VCARD
BEGIN:VCARD
VERSION:4.0
FN:No Phone
BDAY:--12-31
END:VCARD
BEGIN:VCARD
VERSION:4.0
FN:Bad Date
TEL:1
BDAY:yesterday
END:VCARD
BEGIN:VCARD
VERSION:4.0
FN:Basic Format
TEL:2
BDAY:19851231
END:VCARD
`

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestImporter_Decode(t *testing.T) {
	res, err := (&engine.Importer{}).Decode(context.Background(), strings.NewReader(addressBook))
	require.NoError(t, err)

	want := []contacts.Contact{
		{Name: "Ann Example", Phone: "+33 6 12 34 56 78", Birthday: "5-Mar"},
		{Name: "Jo Bo", Phone: "555-0101", Birthday: "29-Feb"},
		{Name: "Basic Format", Phone: "2", Birthday: "31-Dec"},
	}
	assert.Equal(t, want, res.Contacts)
	assert.Equal(t, 2, res.Skipped)
}

func TestImporter_Import_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.vcf")
	require.NoError(t, os.WriteFile(path, []byte(addressBook), 0o600))

	res, err := (&engine.Importer{}).Import(context.Background(), path, engine.Credentials{})
	require.NoError(t, err)
	assert.Len(t, res.Contacts, 3)
}

func TestImporter_Import_Web(t *testing.T) {
	fetcher := new(MockFetcher)
	cred := engine.Credentials{User: "u", Password: "p"}
	fetcher.On("Fetch", mock.Anything, "https://dav.example.com/book.vcf", cred).
		Return(io.NopCloser(strings.NewReader(addressBook)), nil)

	res, err := (&engine.Importer{Fetcher: fetcher}).Import(context.Background(), "https://dav.example.com/book.vcf", cred)
	require.NoError(t, err)
	assert.Len(t, res.Contacts, 3)
	fetcher.AssertExpectations(t)
}

func TestImporter_Import_Errors(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := (&engine.Importer{Fetcher: fetcher}).Import(context.Background(), "http://offline.invalid/x.vcf", engine.Credentials{})
	assert.ErrorContains(t, err, "connection refused")

	_, err = (&engine.Importer{}).Import(context.Background(), "https://no-fetcher", engine.Credentials{})
	assert.Error(t, err)

	_, err = (&engine.Importer{}).Import(context.Background(), filepath.Join(t.TempDir(), "missing.vcf"), engine.Credentials{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImporter_Decode_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&engine.Importer{}).Decode(ctx, strings.NewReader(addressBook))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerge_SkipsExistingContacts(t *testing.T) {
	store := contacts.NewStore(filepath.Join(t.TempDir(), "contacts.csv"))
	_, err := store.Insert(contacts.Contact{Name: "Ann Example", Phone: "+33 6 12 34 56 78", Birthday: "5-Mar"})
	require.NoError(t, err)

	res, err := (&engine.Importer{}).Decode(context.Background(), strings.NewReader(addressBook))
	require.NoError(t, err)

	added, err := engine.Merge(store, res.Contacts)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	all, err := store.Contacts()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMerge_MatchesBirthdaySpelledDifferently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("name,phone,birthday\nAnn Example,+33 6 12 34 56 78,05-mar\n"), 0o600))
	store := contacts.NewStore(path)

	added, err := engine.Merge(store, []contacts.Contact{
		{Name: "Ann Example", Phone: "+33 6 12 34 56 78", Birthday: "5-Mar"},
	})
	require.NoError(t, err)
	assert.Zero(t, added)

	all, err := store.Contacts()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

package contacts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"go.uber.org/goleak"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ignoreID compares contacts on their persisted fields only.
var ignoreID = cmpopts.IgnoreFields(contacts.Contact{}, "ID")

func names(list []contacts.Contact) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}

// -----------------------------------------------------------------------------
// Load / Save
// -----------------------------------------------------------------------------

func TestLoad_ReadsRowsInOrder(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,+100,5-Mar\nBo,+200,5-Mar\nCy,+300,40-Xyz\n")
	store := contacts.NewStore(path)

	list, err := store.Load()
	require.NoError(t, err)

	want := []contacts.Contact{
		{Name: "Ann", Phone: "+100", Birthday: "5-Mar"},
		{Name: "Bo", Phone: "+200", Birthday: "5-Mar"},
		{Name: "Cy", Phone: "+300", Birthday: "40-Xyz"},
	}
	if diff := cmp.Diff(want, list, ignoreID); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	for _, c := range list {
		assert.NotEmpty(t, c.ID)
	}
}

func TestLoad_HeaderIsCaseInsensitiveAndReordered(t *testing.T) {
	path := writeCSV(t, "\ufeffBirthday, Name ,PHONE\n1-Jan,Ann,555\n")

	list, err := contacts.NewStore(path).Load()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].Name)
	assert.Equal(t, "555", list[0].Phone)
	assert.Equal(t, "1-Jan", list[0].Birthday)
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty file", ""},
		{"Missing column", "name,phone\nAnn,555\n"},
		{"Ragged row", "name,phone,birthday\nAnn,555\n"},
		{"Broken quoting", "name,phone,birthday\n\"Ann,555,1-Jan\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := contacts.NewStore(writeCSV(t, tt.content)).Load()
			assert.ErrorIs(t, err, contacts.ErrStoreUnavailable)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := contacts.NewStore(filepath.Join(t.TempDir(), "nope.csv")).Load()
	assert.ErrorIs(t, err, contacts.ErrStoreUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "contacts.csv")
	store := contacts.NewStore(path)

	in := []contacts.Contact{
		{Name: "Ann, Jr.", Phone: "+33 6 12 34 56 78", Birthday: "5-Mar"},
		{Name: `Bo "B"`, Phone: "0044", Birthday: "29-Feb"},
	}
	require.NoError(t, store.Save(in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := contacts.NewStore(path).Load()
	require.NoError(t, err)
	if diff := cmp.Diff(in, out, ignoreID); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name,phone,birthday\n")

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoad_KeepsIDsOfUnchangedRows(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\nBo,2,2-Feb\n")
	store := contacts.NewStore(path)

	first, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("name,phone,birthday\nBo,2,2-Feb\nCy,3,3-Mar\n"), 0o600))
	second, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, first[1].ID, second[0].ID, "Bo keeps its ID")
	assert.NotEqual(t, first[0].ID, second[1].ID)
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

func TestInsert_ThenFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	store := contacts.NewStore(path)

	added, err := store.Insert(contacts.Contact{Name: " Dee ", Phone: " 123 ", Birthday: "07-jul"})
	require.NoError(t, err)
	assert.Equal(t, "Dee", added.Name)
	assert.Equal(t, "123", added.Phone)
	assert.Equal(t, "7-Jul", added.Birthday)
	assert.NotEmpty(t, added.ID)

	found, err := store.Find(contacts.ByKey(added.Key()))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, added, found[0])

	// Persisted, visible to a fresh store.
	reloaded, err := contacts.NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dee"}, names(reloaded))
}

func TestInsert_ValidationErrors(t *testing.T) {
	store := contacts.NewStore(filepath.Join(t.TempDir(), "contacts.csv"))

	tests := []struct {
		name string
		in   contacts.Contact
	}{
		{"Empty name", contacts.Contact{Name: "  ", Phone: "1", Birthday: "1-Jan"}},
		{"Empty phone", contacts.Contact{Name: "A", Phone: "", Birthday: "1-Jan"}},
		{"Bad birthday", contacts.Contact{Name: "A", Phone: "1", Birthday: "40-Xyz"}},
		{"Impossible day", contacts.Contact{Name: "A", Phone: "1", Birthday: "31-Apr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Insert(tt.in)
			assert.ErrorIs(t, err, contacts.ErrValidation)
		})
	}

	list, err := store.Contacts()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInsert_RefusesToOverwriteMalformedFile(t *testing.T) {
	path := writeCSV(t, "nom;tel\nAnn;1\n")
	store := contacts.NewStore(path)

	_, err := store.Insert(contacts.Contact{Name: "A", Phone: "1", Birthday: "1-Jan"})
	assert.ErrorIs(t, err, contacts.ErrStoreUnavailable)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nom;tel\nAnn;1\n", string(raw))
}

// assertNoTempFiles checks that a failed save cleaned up after itself.
func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, config.StoreTempPattern))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestInsert_WriteFailureKeepsFileAndSnapshot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not apply to root")
	}
	const original = "name,phone,birthday\nAnn,1,1-Jan\n"
	path := writeCSV(t, original)
	dir := filepath.Dir(path)
	store := contacts.NewStore(path)
	before, err := store.Contacts()
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err = store.Insert(contacts.Contact{Name: "Bo", Phone: "2", Birthday: "2-Feb"})
	require.Error(t, err)
	assert.ErrorContains(t, err, config.ErrStoreWrite)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(raw))
	assertNoTempFiles(t, dir)

	after, err := store.Contacts()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSave_FailedRenameKeepsSnapshot(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\n")
	store := contacts.NewStore(path)
	before, err := store.Contacts()
	require.NoError(t, err)

	// A non-empty directory in place of the file makes the final rename
	// fail, whoever runs the test.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o700))

	_, err = store.Update(contacts.MatchKey{Name: "Ann", Phone: "1", Birthday: "1-Jan"},
		contacts.Contact{Name: "Anna", Phone: "1", Birthday: "1-Jan"})
	require.Error(t, err)
	assert.ErrorContains(t, err, config.ErrStoreWrite)
	assertNoTempFiles(t, filepath.Dir(path))

	after, err := store.Contacts()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.DirExists(t, filepath.Join(path, "keep"))
}

func TestUpdate_ReplacesAllDuplicates(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\nBo,2,2-Feb\nAnn,1,1-Jan\n")
	store := contacts.NewStore(path)

	key := contacts.MatchKey{Name: "Ann", Phone: "1", Birthday: "1-Jan"}
	n, err := store.Update(key, contacts.Contact{Name: "Anna", Phone: "1", Birthday: "2-Jan"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := contacts.NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Bo", "Anna"}, names(list))
	assert.Equal(t, "2-Jan", list[2].Birthday)
}

func TestUpdate_NotFound(t *testing.T) {
	store := contacts.NewStore(writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\n"))

	n, err := store.Update(contacts.MatchKey{Name: "Ann", Phone: "2", Birthday: "1-Jan"},
		contacts.Contact{Name: "X", Phone: "1", Birthday: "1-Jan"})
	assert.ErrorIs(t, err, contacts.ErrNotFound)
	assert.Zero(t, n)
}

func TestUpdate_InvalidReplacementLeavesStoreUntouched(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\n")
	store := contacts.NewStore(path)

	_, err := store.Update(contacts.MatchKey{Name: "Ann", Phone: "1", Birthday: "1-Jan"},
		contacts.Contact{Name: "Ann", Phone: "1", Birthday: "nope"})
	assert.ErrorIs(t, err, contacts.ErrValidation)

	list, err := store.Contacts()
	require.NoError(t, err)
	assert.Equal(t, "1-Jan", list[0].Birthday)
}

func TestDelete_RemovesMatchesAndIsIdempotent(t *testing.T) {
	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\nBo,2,2-Feb\nAnn,1,1-Jan\n")
	store := contacts.NewStore(path)
	key := contacts.MatchKey{Name: "Ann", Phone: "1", Birthday: "1-Jan"}

	n, err := store.Delete(key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, err := store.Find(contacts.ByKey(key))
	require.NoError(t, err)
	assert.Empty(t, found)

	n, err = store.Delete(key)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := contacts.NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bo"}, names(list))
}

func TestByID_TargetsSingleDuplicate(t *testing.T) {
	store := contacts.NewStore(writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\nAnn,1,1-Jan\n"))
	list, err := store.Contacts()
	require.NoError(t, err)
	require.Len(t, list, 2)

	updated, err := store.UpdateByID(list[1].ID, contacts.Contact{Name: "Ann B", Phone: "1", Birthday: "1-Jan"})
	require.NoError(t, err)
	assert.Equal(t, list[1].ID, updated.ID)

	n, err := store.DeleteByID(list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rest, err := store.Contacts()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann B"}, names(rest))

	_, err = store.UpdateByID("missing", contacts.Contact{Name: "A", Phone: "1", Birthday: "1-Jan"})
	assert.ErrorIs(t, err, contacts.ErrNotFound)
}

func TestContacts_ReturnsCopy(t *testing.T) {
	store := contacts.NewStore(writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\n"))
	list, err := store.Contacts()
	require.NoError(t, err)

	list[0].Name = "Mutated"

	again, err := store.Contacts()
	require.NoError(t, err)
	assert.Equal(t, "Ann", again[0].Name)
}

// -----------------------------------------------------------------------------
// Search & Sort
// -----------------------------------------------------------------------------

func TestContains_SearchesAllFields(t *testing.T) {
	store := contacts.NewStore(writeCSV(t,
		"name,phone,birthday\nAnn,+33 1,5-Mar\nBo,+44 2,12-Dec\nCarla,555,1-Jan\n"))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Ann", "Bo", "Carla"}},
		{"ANN", []string{"Ann"}},
		{"+44", []string{"Bo"}},
		{"mar", []string{"Ann"}},
		{"a", []string{"Ann", "Carla"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := store.Find(contacts.Contains(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSameContact_IgnoresBirthdaySpelling(t *testing.T) {
	pick := contacts.SameContact(contacts.MatchKey{Name: "Ann", Phone: "1", Birthday: "5-Mar"})

	assert.True(t, pick(contacts.Contact{Name: "Ann", Phone: "1", Birthday: "05-mar"}))
	assert.True(t, pick(contacts.Contact{Name: " Ann ", Phone: "1", Birthday: "5-MARCH"}))
	assert.False(t, pick(contacts.Contact{Name: "Ann", Phone: "1", Birthday: "6-Mar"}))
	assert.False(t, pick(contacts.Contact{Name: "Ann", Phone: "2", Birthday: "5-Mar"}))

	odd := contacts.SameContact(contacts.MatchKey{Name: "Dee", Phone: "4", Birthday: "40-Xyz"})
	assert.True(t, odd(contacts.Contact{Name: "Dee", Phone: "4", Birthday: "40-Xyz"}))
}

func TestSortBy(t *testing.T) {
	list := []contacts.Contact{
		{Name: "bo", Phone: "3", Birthday: "1-Dec"},
		{Name: "Ann", Phone: "1", Birthday: "bad"},
		{Name: "cy", Phone: "2", Birthday: "5-Mar"},
		{Name: "Dee", Phone: "4", Birthday: "5-Mar"},
	}

	byName := append([]contacts.Contact(nil), list...)
	contacts.SortBy(byName, contacts.ColumnName, true)
	assert.Equal(t, []string{"Ann", "bo", "cy", "Dee"}, names(byName))

	contacts.SortBy(byName, contacts.ColumnName, false)
	assert.Equal(t, []string{"Dee", "cy", "bo", "Ann"}, names(byName))

	byDate := append([]contacts.Contact(nil), list...)
	contacts.SortBy(byDate, contacts.ColumnBirthday, true)
	assert.Equal(t, []string{"cy", "Dee", "bo", "Ann"}, names(byDate), "stable, invalid last")

	byPhone := append([]contacts.Contact(nil), list...)
	contacts.SortBy(byPhone, contacts.ColumnPhone, true)
	assert.Equal(t, []string{"Ann", "cy", "bo", "Dee"}, names(byPhone))
}

func TestParseColumn(t *testing.T) {
	col, ok := contacts.ParseColumn("Birthday")
	assert.True(t, ok)
	assert.Equal(t, contacts.ColumnBirthday, col)

	_, ok = contacts.ParseColumn("age")
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------
// Watch
// -----------------------------------------------------------------------------

func TestWatch_ReloadsOnExternalEdit(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeCSV(t, "name,phone,birthday\nAnn,1,1-Jan\n")
	store := contacts.NewStore(path)
	_, err := store.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []contacts.Contact, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, 20*time.Millisecond, func(list []contacts.Contact) { changes <- list })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("name,phone,birthday\nAnn,1,1-Jan\nBo,2,2-Feb\n"), 0o600))

	select {
	case list := <-changes:
		assert.Equal(t, []string{"Ann", "Bo"}, names(list))
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	require.NoError(t, <-done)
}

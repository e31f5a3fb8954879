package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"chatlogs/config"
	"chatlogs/internal/domain"
	"chatlogs/internal/port"
)

var _ port.Persistence = (*BoltStore)(nil)

func sampleUnit() *domain.Unit {
	u := domain.NewUnit()
	u.Merge("http://chatlogs.musicbrainz.org/musicbrainz/2015/2015-03/2015-03-01.html", []domain.Triple{
		{Timestamp: "10:00", Author: "alice", Text: "Hello World"},
		{Timestamp: "10:01", Author: "bob", Text: "Hello there"},
	})
	u.Merge("http://chatlogs.musicbrainz.org/musicbrainz/2015/2015-02/2015-02-28.html", []domain.Triple{
		{Timestamp: "23:59", Author: "carol", Text: "Release day: Picard 1.3!"},
	})
	return u
}

func contents(u *domain.Unit) (map[domain.MessageID]domain.Message, map[string][]domain.MessageID) {
	msgs := make(map[domain.MessageID]domain.Message)
	for _, m := range u.Messages.All() {
		msgs[m.ID] = m
	}
	words := make(map[string][]domain.MessageID)
	u.Index.Each(func(word string, ids domain.IDSet) error {
		words[word] = ids.Sorted()
		return nil
	})
	return msgs, words
}

func TestLoad_MissingArchiveIsEmpty(t *testing.T) {
	st := NewBoltStore(t.TempDir(), time.Second)

	unit, err := st.Load("musicbrainz")
	if err != nil {
		t.Fatalf("expected no error for missing archive, got %v", err)
	}
	if unit.Messages.Len() != 0 || unit.Index.Len() != 0 {
		t.Error("expected empty unit")
	}
	if _, err := os.Stat(config.ArchivePath(st.DataDir(), "musicbrainz")); !os.IsNotExist(err) {
		t.Error("Load must not create the archive file")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := NewBoltStore(filepath.Join(t.TempDir(), "data"), time.Second)
	want := sampleUnit()

	if err := st.Save("musicbrainz", want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := st.Load("musicbrainz")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	wm, ww := contents(want)
	gm, gw := contents(got)
	if !reflect.DeepEqual(wm, gm) {
		t.Errorf("messages differ after round trip:\nwant %v\ngot  %v", wm, gm)
	}
	if !reflect.DeepEqual(ww, gw) {
		t.Errorf("word index differs after round trip:\nwant %v\ngot  %v", ww, gw)
	}
}

func TestSave_OverwritesPreviousUnit(t *testing.T) {
	st := NewBoltStore(t.TempDir(), time.Second)
	if err := st.Save("musicbrainz", sampleUnit()); err != nil {
		t.Fatal(err)
	}

	smaller := domain.NewUnit()
	smaller.Merge("http://example/day.html", []domain.Triple{{Timestamp: "1", Author: "x", Text: "only one"}})
	if err := st.Save("musicbrainz", smaller); err != nil {
		t.Fatal(err)
	}

	got, err := st.Load("musicbrainz")
	if err != nil {
		t.Fatal(err)
	}
	if got.Messages.Len() != 1 {
		t.Errorf("expected 1 message after overwrite, got %d", got.Messages.Len())
	}
	if got.Index.Lookup("hello").Len() != 0 {
		t.Error("words from the previous unit survived the overwrite")
	}
}

func TestSave_ChannelsAreSeparate(t *testing.T) {
	st := NewBoltStore(t.TempDir(), time.Second)
	if err := st.Save("musicbrainz", sampleUnit()); err != nil {
		t.Fatal(err)
	}

	other, err := st.Load("musicbrainz-devel")
	if err != nil {
		t.Fatal(err)
	}
	if other.Messages.Len() != 0 {
		t.Errorf("expected empty unit for another channel, got %d messages", other.Messages.Len())
	}
}

func TestLoad_GarbageFileIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, time.Second)
	if err := os.WriteFile(config.ArchivePath(dir, "musicbrainz"), []byte("definitely not a bolt file"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := st.Load("musicbrainz")
	if !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
}

func TestLoad_ForeignBoltFileIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := config.ArchivePath(dir, "musicbrainz")
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte("something_else"))
		return err
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewBoltStore(dir, time.Second).Load("musicbrainz")
	if !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
}

func TestLoad_DanglingIndexEntryIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, time.Second)
	if err := st.Save("musicbrainz", sampleUnit()); err != nil {
		t.Fatal(err)
	}

	db, err := bbolt.Open(config.ArchivePath(dir, "musicbrainz"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	ghost := domain.NewMessageID(domain.Triple{Text: "ghost"})
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketWords).Put([]byte("ghost"), ghost[:])
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	_, err = st.Load("musicbrainz")
	if !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
	if !errors.Is(err, domain.ErrIndexInconsistent) {
		t.Errorf("expected the inconsistency cause to be kept, got %v", err)
	}
}

func TestLoad_TamperedMessageIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, time.Second)
	unit := sampleUnit()
	if err := st.Save("musicbrainz", unit); err != nil {
		t.Fatal(err)
	}

	id := unit.Messages.All()[0].ID
	db, err := bbolt.Open(config.ArchivePath(dir, "musicbrainz"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMessages).Put(id[:], []byte(`{"url":"u","ts":"00:00","author":"mallory","text":"edited"}`))
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := st.Load("musicbrainz"); !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
}

func TestLoad_NewerSchemaIsRejected(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, time.Second)
	if err := st.Save("musicbrainz", sampleUnit()); err != nil {
		t.Fatal(err)
	}

	db, err := bbolt.Open(config.ArchivePath(dir, "musicbrainz"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, []byte("99"))
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := st.Load("musicbrainz"); !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
}

func TestSave_LockedArchive(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, 50*time.Millisecond)
	if err := st.Save("musicbrainz", sampleUnit()); err != nil {
		t.Fatal(err)
	}

	holder, err := bbolt.Open(config.ArchivePath(dir, "musicbrainz"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()

	if err := st.Save("musicbrainz", sampleUnit()); !errors.Is(err, domain.ErrPersistenceLocked) {
		t.Errorf("expected ErrPersistenceLocked, got %v", err)
	}
}

func TestStats(t *testing.T) {
	st := NewBoltStore(t.TempDir(), time.Second)
	unit := sampleUnit()
	if err := st.Save("musicbrainz", unit); err != nil {
		t.Fatal(err)
	}

	stats, err := st.Stats("musicbrainz")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Messages != unit.Messages.Len() {
		t.Errorf("expected %d messages, got %d", unit.Messages.Len(), stats.Messages)
	}
	if stats.Words != unit.Index.Len() {
		t.Errorf("expected %d words, got %d", unit.Index.Len(), stats.Words)
	}
	if stats.Schema != CurrentSchemaVersion {
		t.Errorf("expected schema %d, got %d", CurrentSchemaVersion, stats.Schema)
	}
	if stats.SavedAt.IsZero() {
		t.Error("expected SavedAt to be set")
	}

	if _, err := st.Stats("never-archived"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestValidateChannel(t *testing.T) {
	valid := []string{"musicbrainz", "musicbrainz-devel", "metabrainz_2"}
	for _, c := range valid {
		if err := ValidateChannel(c); err != nil {
			t.Errorf("ValidateChannel(%q) unexpected error: %v", c, err)
		}
	}
	invalid := []string{"", ".", "..", "../etc", "a/b", `a\b`, ".hidden", "music*"}
	for _, c := range invalid {
		if err := ValidateChannel(c); !errors.Is(err, domain.ErrInvalidChannel) {
			t.Errorf("ValidateChannel(%q) expected ErrInvalidChannel, got %v", c, err)
		}
	}
}

func TestSaveLoad_WordLongerThanBoltKey(t *testing.T) {
	st := NewBoltStore(t.TempDir(), time.Second)
	long := strings.Repeat("a", 40000)
	exact := strings.Repeat("b", bbolt.MaxKeySize)

	unit := domain.NewUnit()
	unit.Merge("http://chatlogs.musicbrainz.org/devel/2015/2015-03/2015-03-01.html", []domain.Triple{
		{Timestamp: "10:00", Author: "alice", Text: "paste " + long},
		{Timestamp: "10:01", Author: "bob", Text: exact + " " + long},
	})

	if err := st.Save("devel", unit); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := st.Load("devel")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	wantMsgs, wantWords := contents(unit)
	gotMsgs, gotWords := contents(loaded)
	if !reflect.DeepEqual(wantMsgs, gotMsgs) {
		t.Error("messages differ after round trip")
	}
	if !reflect.DeepEqual(wantWords, gotWords) {
		t.Error("word index differs after round trip")
	}
	if loaded.Index.Lookup(long).Len() != 2 {
		t.Errorf("expected the long word under both messages, got %d", loaded.Index.Lookup(long).Len())
	}
	if loaded.Index.Lookup(exact).Len() != 1 {
		t.Errorf("expected the max-key-size word under one message, got %d", loaded.Index.Lookup(exact).Len())
	}
}

func TestLoad_MismatchedLongWordIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	st := NewBoltStore(dir, time.Second)

	unit := domain.NewUnit()
	unit.Merge("http://example/day.html", []domain.Triple{
		{Timestamp: "10:00", Author: "alice", Text: strings.Repeat("z", 40000)},
	})
	if err := st.Save("devel", unit); err != nil {
		t.Fatal(err)
	}

	db, err := bbolt.Open(config.ArchivePath(dir, "devel"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		words := tx.Bucket(bucketWords)
		key := wordKey(strings.Repeat("z", 40000))
		value := append([]byte(nil), words.Get(key)...)
		copy(value[4:], "y")
		return words.Put(key, value)
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := st.Load("devel"); !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Errorf("expected ErrPersistenceCorrupt, got %v", err)
	}
}

package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRowsHeaderKeyed(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "users.csv",
		"id,username,email,role,bio,first_name,last_name\n"+
			"1,alice,alice@example.com,admin,,Alice,Liddell\n"+
			"2,bob,bob@example.com,,,,\n")
	imp := &Importer{Source: DirSource{Dir: dir}}

	rows, err := imp.rows(context.Background(), "users.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["username"])
	assert.Equal(t, "admin", rows[0]["role"])
	assert.Equal(t, "Liddell", rows[0]["last_name"])
	assert.Equal(t, "", rows[1]["role"])
}

func TestRowsMissingFile(t *testing.T) {
	imp := &Importer{Source: DirSource{Dir: t.TempDir()}}

	_, err := imp.rows(context.Background(), "users.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users.csv")
}

func TestLoadTitleGenres(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "genre_title.csv",
		"id,title_id,genre_id\n1,10,100\n2,10,200\n3,11,100\n")
	imp := &Importer{Source: DirSource{Dir: dir}}
	drama := primitive.NewObjectID()
	comedy := primitive.NewObjectID()
	genres := map[string]primitive.ObjectID{"100": drama, "200": comedy}

	links, err := imp.loadTitleGenres(context.Background(), genres, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{drama, comedy}, links["10"])
	assert.Equal(t, []primitive.ObjectID{drama}, links["11"])
}

func TestLoadTitleGenresUnknownGenre(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "genre_title.csv", "id,title_id,genre_id\n1,10,999\n")
	imp := &Importer{Source: DirSource{Dir: dir}}

	_, err := imp.loadTitleGenres(context.Background(), nil, logrus.NewEntry(logrus.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown genre 999")
}

func TestParsePubDate(t *testing.T) {
	ts := parsePubDate("2019-09-24T21:08:21Z")
	assert.Equal(t, 2019, ts.Year())
	assert.Equal(t, time.September, ts.Month())

	// Unparseable timestamps fall back to the import time.
	fallback := parsePubDate("yesterday")
	assert.WithinDuration(t, time.Now().UTC(), fallback, time.Minute)
}

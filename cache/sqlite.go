package cache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// LyricsCache memoizes provider lookups and rendered clouds. The default DSN
// is a shared in-memory database, so entries live as long as the process.
type LyricsCache struct {
	db *sql.DB
	mu sync.RWMutex
}

type Entry struct {
	Lyrics string
	Source string
	URL    string
	Found  bool
}

func New(dsn string) (*LyricsCache, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, err
		}
		dsn += "?_journal=WAL&_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database disappears with its last connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS lyrics (
			artist     TEXT NOT NULL,
			title      TEXT NOT NULL,
			lyrics     TEXT,
			source     TEXT,
			url        TEXT,
			found      INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (artist, title)
		);
		CREATE TABLE IF NOT EXISTS clouds (
			key        TEXT PRIMARY KEY,
			png        BLOB NOT NULL,
			meta       TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[cache] SQLite initialized at", dsn)
	return &LyricsCache{db: db}, nil
}

func (c *LyricsCache) Get(artist, title string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var lyrics, source, url sql.NullString
	var found int

	err := c.db.QueryRow(
		"SELECT lyrics, source, url, found FROM lyrics WHERE artist = ? AND title = ?",
		Key(artist), Key(title),
	).Scan(&lyrics, &source, &url, &found)

	if err != nil {
		return nil, false
	}

	return &Entry{
		Lyrics: lyrics.String,
		Source: source.String,
		URL:    url.String,
		Found:  found == 1,
	}, true
}

func (c *LyricsCache) Set(artist, title string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	foundInt := 0
	if e.Found {
		foundInt = 1
	}

	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO lyrics (artist, title, lyrics, source, url, found)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		Key(artist), Key(title), e.Lyrics, e.Source, e.URL, foundInt,
	)
	if err != nil {
		log.Printf("[cache] write error: %v", err)
	}
}

// GetCloud returns a rendered PNG and its JSON metadata.
func (c *LyricsCache) GetCloud(key string) ([]byte, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var png []byte
	var meta string
	err := c.db.QueryRow("SELECT png, meta FROM clouds WHERE key = ?", key).Scan(&png, &meta)
	if err != nil {
		return nil, "", false
	}
	return png, meta, true
}

func (c *LyricsCache) SetCloud(key string, png []byte, meta string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO clouds (key, png, meta) VALUES (?, ?, ?)",
		key, png, meta,
	)
	if err != nil {
		log.Printf("[cache] write error: %v", err)
	}
}

func (c *LyricsCache) Stats() (total int, found int, clouds int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.db.QueryRow("SELECT COUNT(*) FROM lyrics").Scan(&total)
	c.db.QueryRow("SELECT COUNT(*) FROM lyrics WHERE found = 1").Scan(&found)
	c.db.QueryRow("SELECT COUNT(*) FROM clouds").Scan(&clouds)
	return
}

func (c *LyricsCache) Close() error {
	return c.db.Close()
}

// Key folds case and surrounding/inner whitespace runs, so "All  Too Well "
// and "all too well" share an entry while distinct titles never do.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

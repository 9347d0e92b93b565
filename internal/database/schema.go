package database

const schema = `
CREATE TABLE theaters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	city TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	listing_url TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_theaters_source ON theaters(source);
CREATE INDEX idx_theaters_is_active ON theaters(is_active);

CREATE TABLE movies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	original_title TEXT NOT NULL DEFAULT '',
	tmdb_id INTEGER NOT NULL UNIQUE,
	year INTEGER,
	synopsis TEXT NOT NULL DEFAULT '',
	poster_url TEXT NOT NULL DEFAULT '',
	rating REAL,
	classification TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_movies_title ON movies(title);
CREATE INDEX idx_movies_year ON movies(year);

CREATE TABLE movie_source_urls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	movie_id INTEGER NOT NULL,
	source TEXT NOT NULL,
	url TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (source, url),
	FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE CASCADE
);

CREATE INDEX idx_source_urls_movie ON movie_source_urls(movie_id);

CREATE TABLE unfindable_urls (
	url TEXT PRIMARY KEY,
	movie_title TEXT NOT NULL,
	original_title TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 1,
	first_seen TIMESTAMP NOT NULL,
	last_seen TIMESTAMP NOT NULL
);

CREATE INDEX idx_unfindable_reason ON unfindable_urls(reason);
CREATE INDEX idx_unfindable_last_seen ON unfindable_urls(last_seen);

CREATE TABLE showtimes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	theater_id INTEGER NOT NULL,
	movie_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	format TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	screen TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	UNIQUE (theater_id, movie_id, date, time, format, language),
	FOREIGN KEY (theater_id) REFERENCES theaters(id) ON DELETE CASCADE,
	FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE CASCADE
);

CREATE INDEX idx_showtimes_date ON showtimes(date);
CREATE INDEX idx_showtimes_theater_date ON showtimes(theater_id, date);
CREATE INDEX idx_showtimes_movie_date ON showtimes(movie_id, date);

CREATE TABLE operational_issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	task TEXT NOT NULL,
	message TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT '{}',
	severity TEXT NOT NULL DEFAULT 'error',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_issues_created_at ON operational_issues(created_at);
CREATE INDEX idx_issues_task ON operational_issues(task);
CREATE INDEX idx_issues_severity ON operational_issues(severity);

CREATE TABLE api_call_counters (
	service TEXT NOT NULL,
	date TEXT NOT NULL,
	call_count INTEGER NOT NULL DEFAULT 0,
	last_called_at TIMESTAMP,
	PRIMARY KEY (service, date)
);
`

// migrations contains incremental schema changes applied in order based
// on the current user_version. No entry for version 0; the base schema
// covers it.
var migrations = []string{
	"",
}

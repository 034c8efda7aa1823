package store

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

CREATE TABLE IF NOT EXISTS residential_complexes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	complex_id    TEXT UNIQUE NOT NULL,
	name          TEXT NOT NULL,
	city          TEXT,
	district      TEXT,
	developer     TEXT,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_complex_id ON residential_complexes(complex_id);

CREATE TABLE IF NOT EXISTS real_estate_developers (
	name     TEXT PRIMARY KEY,
	category TEXT NOT NULL CHECK (category IN ('good', 'bad', 'indifferent'))
);

CREATE TABLE IF NOT EXISTS blacklisted_jks (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	complex_id     TEXT UNIQUE NOT NULL,
	name           TEXT NOT NULL,
	blacklisted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	notes          TEXT
);

CREATE TABLE IF NOT EXISTS blacklisted_districts (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	city     TEXT NOT NULL,
	district TEXT NOT NULL,
	UNIQUE(city, district)
);

CREATE TABLE IF NOT EXISTS rental_flats (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	flat_id            TEXT NOT NULL,
	price              INTEGER NOT NULL,
	area               REAL NOT NULL,
	flat_type          TEXT CHECK (flat_type IN ('Studio', '1BR', '2BR', '3BR+')),
	residential_complex TEXT,
	floor              INTEGER,
	total_floors       INTEGER,
	construction_year  INTEGER,
	parking            TEXT,
	description        TEXT NOT NULL,
	url                TEXT NOT NULL,
	city               TEXT,
	query_date         DATE NOT NULL,
	archived           INTEGER NOT NULL DEFAULT 0,
	published_at       TIMESTAMP,
	scraped_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(flat_id, query_date)
);
CREATE INDEX IF NOT EXISTS idx_rental_flat_id ON rental_flats(flat_id);
CREATE INDEX IF NOT EXISTS idx_rental_complex_date ON rental_flats(residential_complex, query_date);
CREATE INDEX IF NOT EXISTS idx_rental_flat_type ON rental_flats(flat_type);

CREATE TABLE IF NOT EXISTS sales_flats (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	flat_id            TEXT NOT NULL,
	price              INTEGER NOT NULL,
	area               REAL NOT NULL,
	flat_type          TEXT CHECK (flat_type IN ('Studio', '1BR', '2BR', '3BR+')),
	residential_complex TEXT,
	floor              INTEGER,
	total_floors       INTEGER,
	construction_year  INTEGER,
	parking            TEXT,
	description        TEXT NOT NULL,
	url                TEXT NOT NULL,
	city               TEXT,
	query_date         DATE NOT NULL,
	archived           INTEGER NOT NULL DEFAULT 0,
	published_at       TIMESTAMP,
	scraped_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(flat_id, query_date)
);
CREATE INDEX IF NOT EXISTS idx_sales_flat_id ON sales_flats(flat_id);
CREATE INDEX IF NOT EXISTS idx_sales_complex_date ON sales_flats(residential_complex, query_date);
CREATE INDEX IF NOT EXISTS idx_sales_flat_type ON sales_flats(flat_type);

CREATE TABLE IF NOT EXISTS favorites (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	flat_id    TEXT NOT NULL,
	flat_type  TEXT NOT NULL CHECK (flat_type IN ('rental', 'sale')),
	added_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	notes      TEXT,
	UNIQUE(flat_id, flat_type)
);
CREATE INDEX IF NOT EXISTS idx_favorites_flat_id ON favorites(flat_id);

CREATE TABLE IF NOT EXISTS ignored_opportunities (
	flat_id     TEXT PRIMARY KEY,
	ignored_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mid_prices (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	currency   TEXT NOT NULL,
	rate       REAL NOT NULL,
	fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_mid_prices_currency_fetched ON mid_prices(currency, fetched_at);

CREATE TABLE IF NOT EXISTS jk_performance_snapshots (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	residential_complex TEXT NOT NULL,
	snapshot_date       DATE NOT NULL,

	total_rental_flats INTEGER DEFAULT 0,
	total_sales_flats  INTEGER DEFAULT 0,

	median_rental_yield REAL,
	mean_rental_yield   REAL,
	min_rental_yield    REAL,
	max_rental_yield    REAL,

	min_rent_price_per_m2    REAL,
	max_rent_price_per_m2    REAL,
	mean_rent_price_per_m2   REAL,
	median_rent_price_per_m2 REAL,

	min_sales_price_per_m2    REAL,
	max_sales_price_per_m2    REAL,
	mean_sales_price_per_m2   REAL,
	median_sales_price_per_m2 REAL,

	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(residential_complex, snapshot_date)
);
CREATE INDEX IF NOT EXISTS idx_jk_snapshots_complex ON jk_performance_snapshots(residential_complex);
CREATE INDEX IF NOT EXISTS idx_jk_snapshots_date ON jk_performance_snapshots(snapshot_date);
CREATE INDEX IF NOT EXISTS idx_jk_snapshots_complex_date ON jk_performance_snapshots(residential_complex, snapshot_date);

CREATE TABLE IF NOT EXISTS opportunity_analysis (
	id                             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_timestamp                  TEXT NOT NULL,
	rank                           INTEGER NOT NULL,
	flat_id                        TEXT NOT NULL,
	residential_complex            TEXT,
	price                          INTEGER NOT NULL,
	area                           REAL NOT NULL,
	flat_type                      TEXT,
	floor                          INTEGER,
	total_floors                   INTEGER,
	construction_year              INTEGER,
	parking                        TEXT,
	discount_percentage_vs_median  REAL NOT NULL,
	median_price                   REAL,
	mean_price                     REAL,
	min_price                      REAL,
	max_price                      REAL,
	sample_size                    INTEGER,
	query_date                     TEXT,
	url                            TEXT,
	description                    TEXT
);
CREATE INDEX IF NOT EXISTS idx_opportunity_run_timestamp ON opportunity_analysis(run_timestamp);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	city                 TEXT NOT NULL,
	started_at           TIMESTAMP NOT NULL,
	finished_at          TIMESTAMP NOT NULL,
	complexes_total      INTEGER NOT NULL DEFAULT 0,
	complexes_success    INTEGER NOT NULL DEFAULT 0,
	complexes_failed     INTEGER NOT NULL DEFAULT 0,
	listings_scraped     INTEGER NOT NULL DEFAULT 0,
	errors_json          TEXT,
	total_http_errors    INTEGER NOT NULL DEFAULT 0,
	total_request_errors INTEGER NOT NULL DEFAULT 0,
	total_rate_limited   INTEGER NOT NULL DEFAULT 0
);
`

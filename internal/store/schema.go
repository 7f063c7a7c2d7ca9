package store

// schemaVersionV1 is the current items schema.
const schemaVersionV1 = 1

// schemaV1 is the items DDL. name is the natural uniqueness constraint;
// seq is allocated by the persister, not by the database, so incremental
// runs keep ids stable.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS items (
	seq     INTEGER PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	url     TEXT NOT NULL DEFAULT '',
	qty     INTEGER NOT NULL DEFAULT 0,
	price   TEXT NOT NULL DEFAULT '',
	sales_w INTEGER NOT NULL DEFAULT 0,
	sales_m INTEGER NOT NULL DEFAULT 0,
	sales_y INTEGER NOT NULL DEFAULT 0
);
`

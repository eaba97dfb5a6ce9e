package sqlite

// Schema DDL. taxa holds one row per taxon; preset_values holds the ordered
// preset list of each taxon, ordinal 0 first.
const (
	createTaxa = `CREATE TABLE IF NOT EXISTS taxa (
    taxon_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    data_type TEXT NOT NULL,
    freeform INTEGER NOT NULL,
    one_per_engagement INTEGER NOT NULL,
    position INTEGER NOT NULL,
    filter_type TEXT NOT NULL DEFAULT ''
);`

	createPresetValues = `CREATE TABLE IF NOT EXISTS preset_values (
    taxon_id INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (taxon_id, ordinal),
    FOREIGN KEY (taxon_id) REFERENCES taxa(taxon_id) ON DELETE CASCADE
);`
)

// Index DDL. Positions are renumbered row by row inside a transaction, so the
// position index is not unique.
const (
	idxTaxaPosition = `CREATE INDEX IF NOT EXISTS idx_taxa_position ON taxa(position);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createTaxa,
	createPresetValues,
	idxTaxaPosition,
}

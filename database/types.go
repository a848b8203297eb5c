package database

// BlacklistedEntry is one row of the blacklisted table
type BlacklistedEntry struct {
	Address string `db:"address"`
	Chain   string `db:"chain"`
}

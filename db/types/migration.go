package types

// Migration is a single embedded SQL script. The Down section goes first,
// separated from the Up section by the "-- +migrate Up" marker.
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}

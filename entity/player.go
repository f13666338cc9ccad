package entity

// Player records the first time an address won a resolved game.
// Rows are created once and never deleted.
type Player struct {
	Address   string `db:"address"`
	FirstSeen int64  `db:"first_seen"`
}

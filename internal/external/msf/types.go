package msf

// StatsTotalsResponse is the player_stats_totals payload.
// Every stat is optional; a missing value stays nil.
type StatsTotalsResponse struct {
	LastUpdatedOn     string             `json:"lastUpdatedOn"`
	PlayerStatsTotals []PlayerStatsEntry `json:"playerStatsTotals"`
}

// PlayerStatsEntry is one player's season totals
type PlayerStatsEntry struct {
	Player Player      `json:"player"`
	Stats  PlayerStats `json:"stats"`
}

// Player identifies a player in the feed's id space
type Player struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// PlayerStats groups totals the way the feed does
type PlayerStats struct {
	GamesPlayed *float64 `json:"gamesPlayed"`
	FieldGoals  struct {
		FgPct    *float64 `json:"fgPct"`
		Fg3PtPct *float64 `json:"fg3PtPct"`
	} `json:"fieldGoals"`
	FreeThrows struct {
		FtPct *float64 `json:"ftPct"`
	} `json:"freeThrows"`
	Rebounds struct {
		Reb *float64 `json:"reb"`
	} `json:"rebounds"`
	Offense struct {
		Pts *float64 `json:"pts"`
		Ast *float64 `json:"ast"`
	} `json:"offense"`
	Defense struct {
		Tov *float64 `json:"tov"`
		Stl *float64 `json:"stl"`
		Blk *float64 `json:"blk"`
	} `json:"defense"`
	Miscellaneous struct {
		FoulPers   *float64 `json:"foulPers"`
		PlusMinus  *float64 `json:"plusMinus"`
		MinSeconds *float64 `json:"minSeconds"`
	} `json:"miscellaneous"`
}

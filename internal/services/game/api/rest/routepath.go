package rest

// Route paths served by the game API.
const (
	Root   = "/"
	Health = "/health"

	PlayersRegister = "/api/players/register"
	PlayersLogin    = "/api/players/login"
	PlayersLogout   = "/api/players/logout"
	PlayersPrefix   = "/api/players/"

	MatchesStart    = "/api/matches/start"
	MatchesComplete = "/api/matches/complete"
	MatchesCrash    = "/api/matches/crash"

	TransactionsCreate = "/api/transactions/create"

	SystemEvent = "/api/system/event"

	StatsPlayers = "/api/stats/players"
	StatsMatches = "/api/stats/matches"
	StatsRevenue = "/api/stats/revenue"
	Leaderboard  = "/api/leaderboard"
)

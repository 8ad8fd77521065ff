package rest

import "net/http"

// RegisterRoutes wires the game API routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	if mux == nil || h == nil {
		return
	}
	mux.HandleFunc(Root, h.HandleRoot)
	mux.HandleFunc(Health, h.HandleHealth)

	mux.HandleFunc(PlayersRegister, h.HandleRegister)
	mux.HandleFunc(PlayersLogin, h.HandleLogin)
	mux.HandleFunc(PlayersLogout, h.HandleLogout)
	mux.HandleFunc(PlayersPrefix, h.HandlePlayerPath)

	mux.HandleFunc(MatchesStart, h.HandleMatchStart)
	mux.HandleFunc(MatchesComplete, h.HandleMatchComplete)
	mux.HandleFunc(MatchesCrash, h.HandleMatchCrash)

	mux.HandleFunc(TransactionsCreate, h.HandleTransactionCreate)

	mux.HandleFunc(SystemEvent, h.HandleSystemEvent)

	mux.HandleFunc(StatsPlayers, h.HandleStatsPlayers)
	mux.HandleFunc(StatsMatches, h.HandleStatsMatches)
	mux.HandleFunc(StatsRevenue, h.HandleStatsRevenue)
	mux.HandleFunc(Leaderboard, h.HandleLeaderboard)
}

package config

// DefaultSports returns the stock sport list. Three NFL-labelled configs
// share one exchange event type but hit different feed keys; the matcher's
// sub-competition guard keeps their rows from bleeding into each other.
func DefaultSports() []SportConfig {
	return []SportConfig{
		{
			Label:       "MMA",
			EventTypeID: "26420387",
			FeedKey:     "mma_mixed_martial_arts",
			// Fighter names rarely survive the event-name check; the alias
			// table carries the load instead.
			StrictMode: false,
		},
		{
			Label:       "NFL",
			EventTypeID: "6423",
			TextQuery:   "NFL",
			FeedKey:     "americanfootball_nfl",
			StrictMode:  true,
		},
		{
			Label:       "NFL",
			EventTypeID: "6423",
			TextQuery:   "NCAA Football",
			FeedKey:     "americanfootball_ncaaf",
			StrictMode:  false,
		},
		{
			Label:       "NFL",
			EventTypeID: "6423",
			TextQuery:   "FCS",
			FeedKey:     "americanfootball_ncaaf",
			StrictMode:  false,
		},
		{
			Label:       "Basketball",
			EventTypeID: "7522",
			TextQuery:   "NBA",
			FeedKey:     "basketball_nba",
			StrictMode:  true,
		},
	}
}

// DefaultAliases returns the stock alias table: canonical normalized token →
// alternate normalized tokens. Lookups are symmetric at the call site, but
// both directions are listed for the pairs that collide in practice.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		// MMA
		"alexandervolkanovski": {"alexvolkanovski"},
		"alexvolkanovski":      {"alexandervolkanovski"},
		"diegolopes":           {"diegolopez"},
		"diegolopez":           {"diegolopes"},

		// NFL
		"washington":           {"washingtoncommanders", "commanders"},
		"washingtoncommanders": {"washington"},
		"detroit":              {"detroitlions"},
		"detroitlions":         {"detroit"},
		"minnesota":            {"minnesotavikings"},
		"minnesotavikings":     {"minnesota"},
		"dallas":               {"dallascowboys"},
		"dallascowboys":        {"dallas"},
		"nygiants":             {"newyorkgiants"},
		"newyorkgiants":        {"nygiants"},
		"nyjets":               {"newyorkjets"},
		"newyorkjets":          {"nyjets"},

		// NCAAF
		"miami":              {"miamifl", "miamiflorida", "miamihurricanes"},
		"miamifl":            {"miami", "miamiflorida", "miamihurricanes"},
		"miamiflorida":       {"miami", "miamifl", "miamihurricanes"},
		"olemiss":            {"mississippi"},
		"mississippi":        {"olemiss"},
		"ncstate":            {"northcarolinastate"},
		"northcarolinastate": {"ncstate"},
		"usc":                {"southerncalifornia"},
		"southerncalifornia": {"usc"},

		// NCAA FCS
		"northdakotastate": {"ndsu", "northdakotast"},
		"ndsu":             {"northdakotastate"},
		"southdakotastate": {"sdsu", "southdakotast"},
		"sdsu":             {"southdakotastate"},
		"montana":          {"montanagrizzlies", "griz", "univmontana"},
		"montanastate":     {"montanast", "montanastbobcats", "montanastatebobcats"},
		"delaware":         {"delawarebluehens"},
		"villanova":        {"villanovawildcats", "nova"},
		"illinoisstate":    {"illstate", "ilstate", "illinoisst", "illinoisstredbirds"},

		// EuroLeague
		"olympiacos":     {"olympiakos", "olympiacospiraeus"},
		"olympiakos":     {"olympiacos", "olympiacospiraeus"},
		"panathinaikos":  {"panathinaikosathens", "panathinaikosbc"},
		"realmadrid":     {"realmadridbaloncesto"},
		"barcelona":      {"fcbarcelona", "barca", "barcelonabasket"},
		"fenerbahce":     {"fenerbahcebeko", "fenerbahceistanbul"},
		"anadoluefes":    {"efes", "anadolu", "anadoluefesistanbul"},
		"baskonia":       {"cazoobaskonia", "laboralkutxa"},
		"virtusbologna":  {"virtussegafredobologna"},
		"monaco":         {"asmonaco", "monacobasket"},
		"maccabitelaviv": {"maccabiplaytikatelaviv", "maccabi"},
		"partizan":       {"partizanmozzartbet", "partizanbelgrade"},
		"redstar":        {"crvenazvezda", "kkcrvenazvezda", "redstarbelgrade"},
		"crvenazvezda":   {"redstar", "redstarbelgrade"},
		"zalgiris":       {"zalgiriskaunas"},
		"alba":           {"albaberlin"},
		"bayern":         {"bayernmunich", "fcbayernmunich"},
	}
}

package domain

// Bookmaker is one entry of the configured bookmaker catalog served to
// dashboard clients. Color is the brand color used for chips in the UI.
type Bookmaker struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

// MarketInfo pairs a market key with its display name.
type MarketInfo struct {
	Key  MarketKey `json:"key"`
	Name string    `json:"name"`
}

// KnownMarkets lists the supported market types.
var KnownMarkets = []MarketInfo{
	{Key: MarketH2H, Name: "Moneyline (1X2)"},
	{Key: MarketSpreads, Name: "Handicap/Spread"},
	{Key: MarketTotals, Name: "Over/Under"},
}

// KnownBookmakers is the catalog of bookmakers the scanner is licensed to
// compare. Keys match the odds provider's bookmaker keys.
var KnownBookmakers = []Bookmaker{
	{Key: "bet365", Name: "Bet365", URL: "https://www.bet365.com/", Color: "#027b5b"},
	{Key: "bwin", Name: "Bwin", URL: "https://sports.bwin.com/", Color: "#ffcc00"},
	{Key: "unibet", Name: "Unibet", URL: "https://www.unibet.com/", Color: "#14805e"},
	{Key: "unibet_eu", Name: "Unibet EU", URL: "https://www.unibet.eu/", Color: "#14805e"},
	{Key: "betway", Name: "Betway", URL: "https://www.betway.com/", Color: "#00a826"},
	{Key: "pinnacle", Name: "Pinnacle", URL: "https://www.pinnacle.com/", Color: "#c41230"},
	{Key: "betfair_ex_eu", Name: "Betfair Exchange", URL: "https://www.betfair.com/exchange/", Color: "#ffb80c"},
	{Key: "betfair", Name: "Betfair Sportsbook", URL: "https://www.betfair.com/", Color: "#ffb80c"},
	{Key: "888sport", Name: "888sport", URL: "https://www.888sport.com/", Color: "#1d1d1d"},
	{Key: "williamhill", Name: "William Hill", URL: "https://www.williamhill.com/", Color: "#002a5c"},
	{Key: "tipico_de", Name: "Tipico", URL: "https://www.tipico.at/", Color: "#004a99"},
	{Key: "betsson", Name: "Betsson", URL: "https://www.betsson.com/", Color: "#ff6600"},
	{Key: "betvictor", Name: "Bet Victor", URL: "https://www.betvictor.com/", Color: "#cc0000"},
	{Key: "marathonbet", Name: "Marathon Bet", URL: "https://www.marathonbet.com/", Color: "#004d99"},
	{Key: "leovegas", Name: "LeoVegas", URL: "https://www.leovegas.com/", Color: "#ff6b00"},
	{Key: "nordicbet", Name: "NordicBet", URL: "https://www.nordicbet.com/", Color: "#00274d"},
	{Key: "coolbet", Name: "Coolbet", URL: "https://www.coolbet.com/", Color: "#6c5ce7"},
	{Key: "interwetten", Name: "Interwetten", URL: "https://www.interwetten.com/", Color: "#003366"},
	{Key: "betathome", Name: "bet-at-home", URL: "https://www.bet-at-home.com/", Color: "#00923f"},
}

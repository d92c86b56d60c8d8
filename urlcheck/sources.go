package urlcheck

import "strings"

type sourceName struct {
	domain string
	name   string
}

// knownSources maps registrable domains to display names. The order is the
// match order.
var knownSources = []sourceName{
	// Michigan
	{"detroitnews.com", "The Detroit News"},
	{"freep.com", "Detroit Free Press"},
	{"crainsdetroit.com", "Crain's Detroit Business"},
	{"mlive.com", "MLive"},
	{"clickondetroit.com", "WDIV"},
	{"wxyz.com", "WXYZ"},
	{"michiganradio.org", "Michigan Radio"},
	{"bridgemi.com", "Bridge Michigan"},
	{"planetdetroit.org", "Planet Detroit"},
	{"metrotimes.com", "Metro Times"},
	{"deadlinedetroit.com", "Deadline Detroit"},
	{"secondwavemedia.com", "Second Wave"},
	{"michiganadvance.com", "Michigan Advance"},
	{"michigandaily.com", "The Michigan Daily"},

	// National
	{"axios.com", "Axios"},
	{"npr.org", "NPR"},
	{"apnews.com", "Associated Press"},
	{"reuters.com", "Reuters"},
	{"nytimes.com", "The New York Times"},
	{"washingtonpost.com", "The Washington Post"},
	{"wsj.com", "The Wall Street Journal"},
	{"usatoday.com", "USA Today"},
	{"politico.com", "Politico"},
	{"thehill.com", "The Hill"},

	// TV networks
	{"cbsnews.com", "CBS News"},
	{"cbs.com", "CBS"},
	{"nbcnews.com", "NBC News"},
	{"nbc.com", "NBC"},
	{"abcnews.go.com", "ABC News"},
	{"abc.com", "ABC"},
	{"foxnews.com", "Fox News"},
	{"cnn.com", "CNN"},
	{"msnbc.com", "MSNBC"},
	{"pbs.org", "PBS"},

	// Environment and energy
	{"eenews.net", "E&E News"},
	{"insideclimatenews.org", "Inside Climate News"},
	{"grist.org", "Grist"},
	{"theenergymix.com", "The Energy Mix"},
	{"canarymedia.com", "Canary Media"},
	{"yaleclimateconnections.org", "Yale Climate Connections"},

	// Business
	{"bloomberg.com", "Bloomberg"},
	{"ft.com", "Financial Times"},
	{"economist.com", "The Economist"},
	{"forbes.com", "Forbes"},
	{"businessinsider.com", "Business Insider"},

	{"theguardian.com", "The Guardian"},
	{"bbc.com", "BBC"},
	{"bbc.co.uk", "BBC"},
	{"vox.com", "Vox"},
	{"theatlantic.com", "The Atlantic"},
	{"propublica.org", "ProPublica"},
	{"wired.com", "Wired"},
	{"arstechnica.com", "Ars Technica"},
	{"huffpost.com", "HuffPost"},
	{"buzzfeednews.com", "BuzzFeed News"},
	{"slate.com", "Slate"},
	{"salon.com", "Salon"},
}

// capitalizationFixes corrects names that meta tags or hostnames report in
// lower case.
var capitalizationFixes = map[string]string{
	"mlive": "MLive",
	"cnn":   "CNN",
	"bbc":   "BBC",
	"npr":   "NPR",
	"pbs":   "PBS",
	"abc":   "ABC",
	"nbc":   "NBC",
	"cbs":   "CBS",
	"wdiv":  "WDIV",
	"wxyz":  "WXYZ",
	"usa":   "USA",
}

// UnknownSource is returned for URLs that cannot be parsed.
const UnknownSource = "Unknown Source"

// NormalizeSourceName trims name and fixes known capitalization problems.
func NormalizeSourceName(name string) string {
	trimmed := strings.TrimSpace(name)
	if fixed, ok := capitalizationFixes[strings.ToLower(trimmed)]; ok {
		return fixed
	}
	return trimmed
}

// GetSourceName derives a display name for the site that published raw.
// Known domains use their house name; anything else gets its first host
// label capitalized.
func GetSourceName(raw string) string {
	host, ok := Hostname(raw)
	if !ok {
		return UnknownSource
	}

	for _, src := range knownSources {
		if MatchesDomain(host, src.domain) {
			return src.name
		}
	}

	base, _, _ := strings.Cut(host, ".")
	if fixed, ok := capitalizationFixes[base]; ok {
		return fixed
	}
	if base == "" {
		return UnknownSource
	}
	return strings.ToUpper(base[:1]) + base[1:]
}

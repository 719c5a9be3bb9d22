package models

// FileEntry er en fil fra repo-treet med ferdig dekodet innhold.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ParsedConfig er den normaliserte formen av en serverless.yml.
// ProviderName er alltid satt ("unknown" når vi ikke klarer å utlede den),
// og Plugins er alltid en liste, aldri en rå skalar.
type ParsedConfig struct {
	Plugins      []string       `json:"plugins"`
	Runtimes     []*string      `json:"runtimes"`
	Events       map[string]any `json:"events"`
	ProviderName string         `json:"provider_name"`
	ParseError   string         `json:"parse_error,omitempty"`
}

// ConfigFileResult kobler en konfigfil i treet til parseresultatet.
type ConfigFileResult struct {
	Path   string        `json:"path"`
	Config *ParsedConfig `json:"config"`
}

// FuncEvent er ett (funksjon, eventtype)-par trukket ut av functions-blokken.
type FuncEvent struct {
	Function string `json:"function_name"`
	Event    string `json:"event"`
}

// GithubMeta samler metadata fra de ulike REST-endepunktene.
// PrivateVulnerabilityReportingEnabled er tri-state: nil betyr ukjent.
type GithubMeta struct {
	SizeKB                               int              `json:"size_kb"`
	Forks                                int              `json:"forks"`
	Stars                                int              `json:"stars"`
	Topics                               []string         `json:"topics"`
	PrimaryLanguage                      string           `json:"primary_language"`
	Archived                             bool             `json:"archived"`
	Disabled                             bool             `json:"disabled"`
	Visibility                           string           `json:"visibility"`
	LanguagesBytes                       map[string]int64 `json:"languages_bytes"`
	ContributorLogins                    []string         `json:"contributor_logins"`
	ContributorCount                     int              `json:"contributor_count"`
	PrivateVulnerabilityReportingEnabled *bool            `json:"private_vulnerability_reporting_enabled"`
	Tags                                 []string         `json:"tags"`
	TagCount                             int              `json:"tag_count"`
}

// RepositoryRecord er én linje i JSONL-utdata. Feltnavnene er låst til
// datasettformatet og må ikke endres uten at konsumentene oppdateres.
type RepositoryRecord struct {
	Repository       string             `json:"repository"`
	URL              string             `json:"url"`
	ServerlessConfig []ConfigFileResult `json:"serverless_config"`
	GithubMetadata   GithubMeta         `json:"github_metadata"`
	IsFork           bool               `json:"is_fork"`
	LastCommitDate   string             `json:"last_commit_date"`
	StarsCount       int                `json:"stars_count"`
	WatchersCount    int                `json:"watchers_count"`
	OpenIssuesCount  int                `json:"open_issues_count"`
	RepoCreatedAt    string             `json:"repo_created_at"`
	RepoUpdatedAt    string             `json:"repo_updated_at"`
	LicenseName      string             `json:"license_name"`
}

// License slik GitHub REST leverer den på repo-detaljer.
type License struct {
	Name   string `json:"name"`
	SpdxID string `json:"spdx_id"`
}

// RepoDetails er svaret fra GET /repos/{owner}/{repo}, kun feltene vi bruker.
type RepoDetails struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	DefaultBranch   string   `json:"default_branch"`
	Size            int      `json:"size"`
	ForksCount      int      `json:"forks_count"`
	StargazersCount int      `json:"stargazers_count"`
	WatchersCount   int      `json:"watchers_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Topics          []string `json:"topics"`
	Language        string   `json:"language"`
	Archived        bool     `json:"archived"`
	Disabled        bool     `json:"disabled"`
	Visibility      string   `json:"visibility"`
	Fork            bool     `json:"fork"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	License         *License `json:"license"`
}

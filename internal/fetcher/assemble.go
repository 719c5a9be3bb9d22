package fetcher

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jonmartinstorm/slsnusern/internal/models"
	"github.com/jonmartinstorm/slsnusern/internal/parser"
)

// securityFeatureName er sikkerhetsfunksjonen datasettet sporer.
const securityFeatureName = "private-vulnerability-reporting"

// ParseRepoURL trekker owner/repo ut av en GitHub-URL. Stier etter de to
// første segmentene ignoreres.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ProcessRepo bygger én komplett datasettpost for repo-URLen. nil betyr at
// posten hoppes over; alle delkall under detaljnivået degraderer til
// tomme/nøytrale verdier i stedet for å stoppe batchen.
func (c *Client) ProcessRepo(ctx context.Context, rawURL string) *models.RepositoryRecord {
	owner, repo, ok := ParseRepoURL(rawURL)
	if !ok {
		slog.Warn("Ugyldig repo-URL", "url", rawURL)
		return nil
	}
	fullName := owner + "/" + repo

	// Fersk kvotesjekk før vi begynner på et nytt repo.
	c.Limiter.CheckAndWait(ctx, nil)

	details, err := c.RepoDetails(ctx, owner, repo)
	if err != nil {
		slog.Warn("Klarte ikke hente repo-detaljer", "repo", fullName, "error", err)
		return nil
	}

	contributors := c.Contributors(ctx, owner, repo)
	tags := c.Tags(ctx, owner, repo)

	record := &models.RepositoryRecord{
		Repository:       fullName,
		URL:              rawURL,
		ServerlessConfig: []models.ConfigFileResult{},
		GithubMetadata: models.GithubMeta{
			SizeKB:                               details.Size,
			Forks:                                details.ForksCount,
			Stars:                                details.StargazersCount,
			Topics:                               emptyIfNil(details.Topics),
			PrimaryLanguage:                      details.Language,
			Archived:                             details.Archived,
			Disabled:                             details.Disabled,
			Visibility:                           details.Visibility,
			LanguagesBytes:                       c.Languages(ctx, owner, repo),
			ContributorLogins:                    emptyIfNil(contributors),
			ContributorCount:                     len(contributors),
			PrivateVulnerabilityReportingEnabled: c.SecurityFeature(ctx, owner, repo, securityFeatureName),
			Tags:                                 emptyIfNil(tags),
			TagCount:                             len(tags),
		},
		IsFork:          details.Fork,
		LastCommitDate:  c.LastCommitDate(ctx, owner, repo),
		StarsCount:      details.StargazersCount,
		WatchersCount:   details.WatchersCount,
		OpenIssuesCount: details.OpenIssuesCount,
		RepoCreatedAt:   details.CreatedAt,
		RepoUpdatedAt:   details.UpdatedAt,
		LicenseName:     licenseName(details.License),
	}

	for _, file := range c.ScanConfigFiles(ctx, owner, repo) {
		parsed := parser.Parse(file.Content)
		if parsed == nil {
			slog.Warn("Klarte ikke parse serverless-config", "repo", fullName, "path", file.Path)
			continue
		}
		record.ServerlessConfig = append(record.ServerlessConfig, models.ConfigFileResult{
			Path:   file.Path,
			Config: parsed,
		})
	}

	return record
}

func licenseName(l *models.License) string {
	if l == nil {
		return ""
	}
	return l.Name
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

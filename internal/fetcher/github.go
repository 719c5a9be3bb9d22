package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

// RepoDetails henter GET /repos/{owner}/{repo}. Feil her gjør at hele
// repoet hoppes over, så den propagerer i motsetning til søsterkallene.
func (c *Client) RepoDetails(ctx context.Context, owner, repo string) (*models.RepoDetails, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.BaseURL, owner, repo)
	var details models.RepoDetails
	if _, _, err := c.getJSON(ctx, url, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Languages henter byte-fordelingen per språk. Tomt map ved feil.
func (c *Client) Languages(ctx context.Context, owner, repo string) map[string]int64 {
	url := fmt.Sprintf("%s/repos/%s/%s/languages", c.BaseURL, owner, repo)
	langs := map[string]int64{}
	if _, _, err := c.getJSON(ctx, url, &langs); err != nil {
		slog.Warn("Klarte ikke hente språk", "repo", owner+"/"+repo, "error", err)
		return map[string]int64{}
	}
	return langs
}

// Contributors henter alle bidragsyter-logins, paginert.
func (c *Client) Contributors(ctx context.Context, owner, repo string) []string {
	url := fmt.Sprintf("%s/repos/%s/%s/contributors?per_page=100", c.BaseURL, owner, repo)
	return c.paginated(ctx, url, func(items []json.RawMessage) []string {
		var logins []string
		for _, item := range items {
			var contributor struct {
				Login string `json:"login"`
			}
			if err := json.Unmarshal(item, &contributor); err != nil || contributor.Login == "" {
				continue
			}
			logins = append(logins, contributor.Login)
		}
		return logins
	})
}

// Tags henter alle tag-navn, paginert.
func (c *Client) Tags(ctx context.Context, owner, repo string) []string {
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", c.BaseURL, owner, repo)
	return c.paginated(ctx, url, func(items []json.RawMessage) []string {
		var names []string
		for _, item := range items {
			var tag struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(item, &tag); err != nil || tag.Name == "" {
				continue
			}
			names = append(names, tag.Name)
		}
		return names
	})
}

// LastCommitDate henter committer-datoen for siste commit. Tom streng når
// repoet ikke har commits eller kallet feiler.
func (c *Client) LastCommitDate(ctx context.Context, owner, repo string) string {
	url := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=1", c.BaseURL, owner, repo)
	var commits []struct {
		Commit struct {
			Committer struct {
				Date string `json:"date"`
			} `json:"committer"`
		} `json:"commit"`
	}
	if _, _, err := c.getJSON(ctx, url, &commits); err != nil {
		slog.Warn("Klarte ikke hente siste commit", "repo", owner+"/"+repo, "error", err)
		return ""
	}
	if len(commits) == 0 {
		slog.Info("Ingen commits funnet", "repo", owner+"/"+repo)
		return ""
	}
	return commits[0].Commit.Committer.Date
}

// SecurityFeature sjekker om en sikkerhetsfunksjon er slått på for repoet.
// Tri-state: true/false når API-et svarer entydig, nil når vi ikke vet.
func (c *Client) SecurityFeature(ctx context.Context, owner, repo, feature string) *bool {
	url := fmt.Sprintf("%s/repos/%s/%s/%s", c.BaseURL, owner, repo, feature)

	var payload struct {
		Enabled *bool `json:"enabled"`
	}
	status, _, err := c.getJSON(ctx, url, &payload)

	switch {
	case err == nil && status == http.StatusNoContent:
		return boolPtr(true)
	case err == nil:
		if payload.Enabled != nil {
			return payload.Enabled
		}
		return boolPtr(false)
	case status == http.StatusNotFound:
		slog.Debug("Sikkerhetsfunksjon ikke aktivert", "repo", owner+"/"+repo, "feature", feature)
		return boolPtr(false)
	default:
		slog.Warn("Uavklart status for sikkerhetsfunksjon", "repo", owner+"/"+repo, "feature", feature, "status", status, "error", err)
		return nil
	}
}

func boolPtr(b bool) *bool {
	return &b
}

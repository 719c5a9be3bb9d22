package fetcher

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ScanConfigFiles finner og henter alle serverless-konfigfiler i repoet:
// default branch fra repo-detaljene (fallback "main"), rekursivt tre,
// blob-innhold per treff. Tomt resultat er normalt – de fleste repo mangler
// filene – så feil på detalj- eller trekallet gir bare en tom liste.
func (c *Client) ScanConfigFiles(ctx context.Context, owner, repo string) []models.FileEntry {
	branch := "main"
	if details, err := c.RepoDetails(ctx, owner, repo); err != nil {
		slog.Warn("Klarte ikke hente repo-detaljer for treskanning", "repo", owner+"/"+repo, "error", err)
		return nil
	} else if details.DefaultBranch != "" {
		branch = details.DefaultBranch
	}

	treeURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.BaseURL, owner, repo, branch)
	var tree struct {
		Tree []treeEntry `json:"tree"`
	}
	status, _, err := c.getJSON(ctx, treeURL, &tree)
	if err != nil {
		if status == http.StatusNotFound || status == http.StatusConflict {
			slog.Info("Repo-tre finnes ikke eller er tomt", "repo", owner+"/"+repo, "branch", branch)
		} else {
			slog.Warn("Klarte ikke hente repo-tre", "repo", owner+"/"+repo, "branch", branch, "error", err)
		}
		return nil
	}
	if len(tree.Tree) == 0 {
		slog.Info("Repo-treet er tomt", "repo", owner+"/"+repo, "branch", branch)
		return nil
	}

	var files []models.FileEntry
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !isConfigPath(entry.Path) {
			continue
		}

		content, ok := c.fetchFileContent(ctx, owner, repo, branch, entry)
		if !ok {
			continue
		}
		files = append(files, models.FileEntry{Path: entry.Path, Content: content})
	}
	return files
}

func isConfigPath(path string) bool {
	return strings.HasSuffix(path, "serverless.yml") || strings.HasSuffix(path, "serverless.yaml")
}

// fetchFileContent henter én blob via contents-endepunktet (eller blob-URLen
// fra trelistingen når den finnes). Base64-innhold har innskutte linjeskift
// som må vekk før dekoding; ferdig-rå innhold passerer uendret.
func (c *Client) fetchFileContent(ctx context.Context, owner, repo, branch string, entry treeEntry) (string, bool) {
	url := entry.URL
	if url == "" {
		url = fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.BaseURL, owner, repo, entry.Path, branch)
	}

	var file struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		SHA      string `json:"sha"`
	}
	if _, _, err := c.getJSON(ctx, url, &file); err != nil {
		slog.Warn("Klarte ikke hente filinnhold", "repo", owner+"/"+repo, "path", entry.Path, "error", err)
		return "", false
	}

	switch {
	case file.Encoding == "base64" && file.Content != "":
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
		if err != nil {
			slog.Warn("Base64-dekoding feilet", "repo", owner+"/"+repo, "path", entry.Path, "error", err)
			return "", false
		}
		return string(decoded), true
	case file.Content != "":
		return file.Content, true
	default:
		slog.Warn("Fant ikke innhold for fil", "repo", owner+"/"+repo, "path", entry.Path, "sha", file.SHA)
		return "", false
	}
}

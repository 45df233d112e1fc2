// Package release checks GitHub for a newer published version.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// URL is the GitHub API endpoint for the latest release. Tests replace it.
var URL = "https://api.github.com/repos/DeusData/cypher-builder/releases/latest"

// Release holds parsed GitHub release metadata.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Version returns the tag without the "v" prefix.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Latest fetches the latest release metadata.
func Latest(ctx context.Context) (*Release, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api status=%d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parse release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("parse release: missing tag_name")
	}
	return &rel, nil
}

// Newer returns the latest release when it is newer than current, or nil.
// A "dev" build never reports an update.
func Newer(ctx context.Context, current string) (*Release, error) {
	if current == "" || current == "dev" {
		return nil, nil
	}
	rel, err := Latest(ctx)
	if err != nil {
		return nil, err
	}
	if Compare(rel.Version(), current) > 0 {
		return rel, nil
	}
	return nil, nil
}

// Compare compares two dotted versions such as "0.2.1" and "v0.2.0".
// Returns >0 if a > b, <0 if a < b, 0 if equal. A pre-release suffix
// ("-rc1") sorts before the plain version.
func Compare(a, b string) int {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")
	aBase, aPre, _ := strings.Cut(a, "-")
	bBase, bPre, _ := strings.Cut(b, "-")

	aParts := strings.Split(aBase, ".")
	bParts := strings.Split(bBase, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		ai, _ := strconv.Atoi(aParts[i])
		bi, _ := strconv.Atoi(bParts[i])
		if ai != bi {
			return ai - bi
		}
	}
	if len(aParts) != len(bParts) {
		return len(aParts) - len(bParts)
	}
	switch {
	case aPre != "" && bPre == "":
		return -1
	case aPre == "" && bPre != "":
		return 1
	}
	return 0
}

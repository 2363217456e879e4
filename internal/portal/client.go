package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
)

// Client talks to the chain's transparency portal: a server-rendered
// mvc-grid file listing plus direct .gz downloads.
type Client struct {
	http *http.Client
	cfg  config.PortalConfig
	logg *logger.Logger
}

// NewClient builds a portal client from configuration.
func NewClient(cfg config.PortalConfig, logg *logger.Logger) *Client {
	return &Client{
		http: &http.Client{},
		cfg:  cfg,
		logg: logg,
	}
}

// List pages through the portal grid newest-first and returns up to limit
// rows for the branch, category and optional ISO date.
func (c *Client) List(ctx context.Context, branch string, category Category, date string, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = c.cfg.PageSize
	}

	var collected []Listing
	for page := 1; len(collected) < limit; page++ {
		rows, err := c.listPage(ctx, branch, category, date, page)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		collected = append(collected, rows...)
		// a short page means the grid ran out of rows
		if len(rows) < c.cfg.PageSize {
			break
		}
	}

	if len(collected) > limit {
		collected = collected[:limit]
	}
	return collected, nil
}

func (c *Client) listPage(ctx context.Context, branch string, category Category, date string, page int) ([]Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("BranchName-equals", branch)
	params.Set("Category-equals", string(category))
	params.Set("grid-sort", "Date")
	params.Set("grid-dir", "Desc")
	params.Set("grid-page", strconv.Itoa(page))
	if portalDate := toPortalDate(date); portalDate != "" {
		params.Set("Date-equals", portalDate)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building portal request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "portal unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("portal returned %d", resp.StatusCode))
	}

	// redirects may land on another host; resolve links against the final URL
	return parseGrid(resp.Body, resp.Request.URL)
}

func parseGrid(body io.Reader, base *url.URL) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parsing portal page")
	}

	table := doc.Find("table.mvc-grid").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}

	var out []Listing
	rows.Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}

		var href string
		tds.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			h, _ := a.Attr("href")
			if strings.HasSuffix(h, ".gz") || strings.Contains(h, "/Download/") {
				href = resolveURL(base, h)
				return false
			}
			return true
		})

		cell := func(i int) string {
			if i >= tds.Length() {
				return ""
			}
			return strings.TrimSpace(tds.Eq(i).Text())
		}

		// grid columns: download, branch, category, date, name
		out = append(out, Listing{
			DownloadURL: href,
			Branch:      cell(1),
			Category:    cell(2),
			Date:        cell(3),
			Name:        cell(4),
		})
	})
	return out, nil
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// Download fetches one archive into destDir, keeping the portal file name.
// A file already on disk is reused as-is.
func (c *Client) Download(ctx context.Context, downloadURL, destDir string) (string, error) {
	name := filepath.Base(strings.Split(downloadURL, "?")[0])
	path := filepath.Join(destDir, name)
	if _, err := os.Stat(path); err == nil {
		c.logg.Debug(c.logg.WithField(ctx, "file", name), "portal.download.cached")
		return path, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", destDir, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building download request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "downloading "+name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("download of %s returned %d", name, resp.StatusCode))
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "streaming "+name)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}

	c.logg.Info(c.logg.WithField(ctx, "file", name), "portal.download.saved")
	return path, nil
}

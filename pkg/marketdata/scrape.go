package marketdata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// scrapeSector pulls the sector label off the public company profile page.
// The page lays profile facts out as two-cell table rows.
func (e *Enricher) scrapeSector(ticker string) (string, error) {
	url := fmt.Sprintf(e.ProfileURL, strings.ToLower(ticker))
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; metric-duck-labs)")

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var sector string
	doc.Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(cell.Text()), "Sector") {
			return true
		}
		next := cell.Next()
		if next.Length() > 0 {
			sector = strings.TrimSpace(next.Text())
			return false
		}
		return true
	})
	if sector == "" {
		return "", fmt.Errorf("sector not found for %s", ticker)
	}
	return sector, nil
}

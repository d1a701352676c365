package indeed

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"
)

const (
	site           = "indeed"
	defaultBaseURL = "https://www.indeed.com"
)

var jobTypeCodes = map[models.JobType]string{
	models.JobTypeFullTime:   "fulltime",
	models.JobTypePartTime:   "parttime",
	models.JobTypeContract:   "contract",
	models.JobTypeTemporary:  "temporary",
	models.JobTypeInternship: "internship",
}

var expCodes = map[models.ExpLevel]string{
	models.ExpEntry:     "entry_level",
	models.ExpAssociate: "mid_level",
	models.ExpMidSenior: "senior_level",
}

// Indeed encodes remote/hybrid as opaque attribute filters.
var workplaceCodes = map[models.Workplace]string{
	models.WorkplaceRemote: "0kf:attr(DSQF7);",
	models.WorkplaceHybrid: "0kf:attr(PAXZC);",
}

const (
	cardSel = "#mosaic-provider-jobcards > ul > li"
	linkSel = "a[data-jk]"
	nextSel = "a[data-testid='pagination-page-next']"
	descSel = "#jobDescriptionText"
)

var (
	titleSels = []string{
		".jobsearch-JobInfoHeader-title > span",
		".jobsearch-JobInfoHeader-title",
		"h1",
	}
	companySels = []string{
		`div[data-company-name="true"] a`,
		`div[data-company-name="true"] span`,
		`div[data-company-name="true"]`,
	}
	locationSels = []string{
		`div[data-testid="inlineHeader-companyLocation"]`,
		`div[data-testid="job-location"]`,
	}
)

// IndeedScraper walks Indeed result pages and opens each posting on its own view page.
type IndeedScraper struct {
	baseURL string
	log     *slog.Logger
}

// NewIndeedScraper returns an Indeed adapter rooted at baseURL, e.g. "https://ca.indeed.com".
func NewIndeedScraper(baseURL string, logger *slog.Logger) *IndeedScraper {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndeedScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("component", "adapter", "site", site),
	}
}

func (s *IndeedScraper) Site() string {
	return site
}

func (s *IndeedScraper) BuildSearchURL(q models.SearchQuery) (string, error) {
	v := url.Values{}
	v.Set("q", q.JobTitle)
	v.Set("l", q.Location)
	if q.HoursWithin > 0 {
		days := (q.HoursWithin + 23) / 24
		v.Set("fromage", strconv.Itoa(days))
	}
	if q.JobType != models.JobTypeAny {
		code, ok := jobTypeCodes[q.JobType]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "job type", Value: string(q.JobType)}
		}
		v.Set("jt", code)
	}
	if q.ExpLevel != models.ExpAny {
		code, ok := expCodes[q.ExpLevel]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "experience level", Value: string(q.ExpLevel)}
		}
		v.Set("explvl", code)
	}
	if q.Workplace != models.WorkplaceAny {
		code, ok := workplaceCodes[q.Workplace]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "workplace", Value: string(q.Workplace)}
		}
		v.Set("sc", code)
	}
	return s.baseURL + "/jobs?" + v.Encode(), nil
}

// Units reads the job keys off the result cards and remembers the next-page link,
// since extraction navigates away from the results.
func (s *IndeedScraper) Units(ctx context.Context, nav *scraper.Navigator, st *scraper.State) ([]scraper.Unit, error) {
	page := nav.Page()
	st.NextURL = s.nextURL(page)

	cards, err := page.Query(cardSel)
	if err != nil {
		return nil, scraper.ErrExtraction{Site: site, Unit: "results page", Err: err}
	}
	units := make([]scraper.Unit, 0, len(cards))
	for _, card := range cards {
		jk, err := browser.AttrOf(card, "data-jk", linkSel)
		if err != nil || jk == "" {
			// spacer and ad slots have no job key
			continue
		}
		units = append(units, scraper.Unit{ID: jk, Element: card})
	}
	return units, nil
}

func (s *IndeedScraper) nextURL(page browser.Page) string {
	href, err := browser.AttrOf(page, "href", nextSel)
	if err != nil || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		s.log.Debug("bad next-page href", "href", href, "error", err)
		return ""
	}
	base, err := url.Parse(page.URL())
	if err != nil || base.Host == "" {
		base, _ = url.Parse(s.baseURL)
	}
	return base.ResolveReference(ref).String()
}

func (s *IndeedScraper) viewURL(jk string) string {
	return s.baseURL + "/viewjob?jk=" + url.QueryEscape(jk)
}

func (s *IndeedScraper) Extract(ctx context.Context, nav *scraper.Navigator, st *scraper.State, u scraper.Unit) (models.Posting, error) {
	link := s.viewURL(u.ID)
	if err := nav.Load(ctx, link); err != nil {
		return models.Posting{}, err
	}

	page := nav.Page()
	title, err := browser.TextOf(page, titleSels...)
	if err != nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	// "- job post" is appended to screen-reader titles
	title = strings.TrimSpace(strings.TrimSuffix(title, "- job post"))

	company, err := browser.TextOf(page, companySels...)
	if err != nil && !errors.Is(err, browser.ErrNoElement) {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	location, _ := browser.TextOf(page, locationSels...)

	p := models.Posting{
		ID:       u.ID,
		Title:    title,
		Company:  company,
		Location: location,
		URL:      link,
	}
	if st.Query().FetchDescription {
		p.Description, _ = browser.TextOf(page, descSel)
	}
	return p, nil
}

func (s *IndeedScraper) NextPage(ctx context.Context, nav *scraper.Navigator, st *scraper.State) (bool, error) {
	next := st.NextURL
	if next == "" {
		return false, nil
	}
	st.NextURL = ""
	if err := nav.Load(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

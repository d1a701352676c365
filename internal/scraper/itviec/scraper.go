package itviec

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/filter"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"
)

const (
	site           = "itviec"
	defaultBaseURL = "https://itviec.com"
)

var levelNames = map[models.ExpLevel]string{
	models.ExpInternship: "Intern",
	models.ExpEntry:      "Fresher",
	models.ExpAssociate:  "Junior",
	models.ExpMidSenior:  "Senior",
	models.ExpDirector:   "Manager",
}

var workingModels = map[models.Workplace]string{
	models.WorkplaceOnSite: "At office",
	models.WorkplaceHybrid: "Hybrid",
	models.WorkplaceRemote: "Remote",
}

// ITviec city slugs differ from a plain slug of the city name.
var citySlugs = map[string]string{
	"ho chi minh": "ho-chi-minh-hcm",
	"hcm":         "ho-chi-minh-hcm",
	"ha noi":      "ha-noi",
	"hanoi":       "ha-noi",
	"da nang":     "da-nang",
}

const (
	cardSel  = "div.job-card"
	emptySel = `div[data-jobs--filter-target="searchNoInfo"]:not(.d-none)`
	nextSel  = `.pagination a[rel="next"], .pagination .page.next a`
	slugAttr = "data-search--job-selection-job-slug-value"
)

var (
	titleSels    = []string{"h3", "h3 a"}
	companySels  = []string{"a.text-rich-grey", "span.text-rich-grey"}
	locationSels = []string{"div.text-rich-grey[title]"}
	descSels     = []string{".job-description", ".preview-job-content .job-description"}
	skillSels    = []string{".job-experiences", ".preview-job-content .job-experiences"}
)

// ITviecScraper reads result cards in place and opens the job page only for descriptions.
type ITviecScraper struct {
	baseURL string
	log     *slog.Logger
}

func NewITviecScraper(baseURL string, logger *slog.Logger) *ITviecScraper {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ITviecScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("component", "adapter", "site", site),
	}
}

func (s *ITviecScraper) Site() string {
	return site
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "-")
}

func citySlug(location string) string {
	key := strings.ToLower(strings.TrimSpace(location))
	if i := strings.Index(key, ","); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}
	if c, ok := citySlugs[key]; ok {
		return c
	}
	return slug(key)
}

// BuildSearchURL maps "golang developer" in "Ho Chi Minh" to /it-jobs/golang-developer/ho-chi-minh-hcm.
// Recency is not expressible and is ignored.
func (s *ITviecScraper) BuildSearchURL(q models.SearchQuery) (string, error) {
	path := s.baseURL + "/it-jobs/" + url.PathEscape(slug(q.JobTitle))
	if q.Location != "" {
		path += "/" + url.PathEscape(citySlug(q.Location))
	}

	v := url.Values{}
	if q.ExpLevel != models.ExpAny {
		name, ok := levelNames[q.ExpLevel]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "experience level", Value: string(q.ExpLevel)}
		}
		v.Set("job_level_names[]", name)
	}
	if q.JobType != models.JobTypeAny {
		return "", scraper.ErrUnsupportedFilter{Site: site, Field: "job type", Value: string(q.JobType)}
	}
	if q.Workplace != models.WorkplaceAny {
		name, ok := workingModels[q.Workplace]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "workplace", Value: string(q.Workplace)}
		}
		v.Set("working_model_names[]", name)
	}
	if len(v) == 0 {
		return path, nil
	}
	return path + "?" + v.Encode(), nil
}

func (s *ITviecScraper) Units(ctx context.Context, nav *scraper.Navigator, st *scraper.State) ([]scraper.Unit, error) {
	page := nav.Page()
	st.NextURL, _ = browser.AttrOf(page, "href", nextSel)

	if empty, _ := page.Query(emptySel); len(empty) > 0 {
		s.log.Info("📭 no jobs for query")
		return nil, nil
	}
	cards, err := page.Query(cardSel)
	if err != nil {
		return nil, scraper.ErrExtraction{Site: site, Unit: "results page", Err: err}
	}
	units := make([]scraper.Unit, 0, len(cards))
	for _, card := range cards {
		id, _ := card.Attr(slugAttr)
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		units = append(units, scraper.Unit{ID: id, Element: card})
	}
	return units, nil
}

func (s *ITviecScraper) Extract(ctx context.Context, nav *scraper.Navigator, st *scraper.State, u scraper.Unit) (models.Posting, error) {
	if u.Element == nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: browser.ErrNoElement}
	}
	title, err := browser.TextOf(u.Element, titleSels...)
	if err != nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	company, err := browser.TextOf(u.Element, companySels...)
	if err != nil && !errors.Is(err, browser.ErrNoElement) {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	p := models.Posting{
		ID:       u.ID,
		Title:    title,
		Company:  company,
		Location: s.location(u.Element),
		URL:      s.baseURL + "/it-jobs/" + u.ID,
	}

	if st.Query().FetchDescription && filter.Evaluate(st.Query(), p.Company, p.Title).Accepted {
		results := nav.Page().URL()
		if err := nav.Load(ctx, p.URL); err != nil {
			return models.Posting{}, err
		}
		desc, _ := browser.TextOf(nav.Page(), descSels...)
		skills, _ := browser.TextOf(nav.Page(), skillSels...)
		p.Description = strings.TrimSpace(desc + "\n\n" + skills)
		if err := nav.Load(ctx, results); err != nil {
			return models.Posting{}, err
		}
	}
	return p, nil
}

// location takes the last titled line of the card; earlier ones are the working model.
func (s *ITviecScraper) location(card browser.Element) string {
	els, err := card.Query(locationSels[0])
	if err != nil || len(els) == 0 {
		return ""
	}
	text, _ := els[len(els)-1].Text()
	return strings.TrimSpace(text)
}

func (s *ITviecScraper) NextPage(ctx context.Context, nav *scraper.Navigator, st *scraper.State) (bool, error) {
	next := st.NextURL
	st.NextURL = ""
	if next == "" {
		return false, nil
	}
	ref, err := url.Parse(next)
	if err != nil {
		return false, nil
	}
	base, _ := url.Parse(s.baseURL)
	if err := nav.Load(ctx, base.ResolveReference(ref).String()); err != nil {
		return false, err
	}
	return true, nil
}

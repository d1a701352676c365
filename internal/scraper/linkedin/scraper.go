package linkedin

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
	site           = "linkedin"
	defaultBaseURL = "https://www.linkedin.com"
)

var expCodes = map[models.ExpLevel]string{
	models.ExpInternship: "1",
	models.ExpEntry:      "2",
	models.ExpAssociate:  "3",
	models.ExpMidSenior:  "4",
	models.ExpDirector:   "5",
	models.ExpExecutive:  "6",
}

var jobTypeCodes = map[models.JobType]string{
	models.JobTypeFullTime:   "F",
	models.JobTypePartTime:   "P",
	models.JobTypeContract:   "C",
	models.JobTypeTemporary:  "T",
	models.JobTypeInternship: "I",
	models.JobTypeOther:      "O",
}

var workplaceCodes = map[models.Workplace]string{
	models.WorkplaceOnSite: "1",
	models.WorkplaceRemote: "2",
	models.WorkplaceHybrid: "3",
}

// selectors
const (
	listSel = "div.scaffold-layout__list > div"
	cardSel = "li[data-occludable-job-id]"
	nextSel = "button.jobs-search-pagination__button--next:not([disabled])"
	descSel = "#job-details"
)

var (
	cardLinkSels = []string{"a.job-card-container__link", "a"}
	titleSels    = []string{
		"div.job-details-jobs-unified-top-card__job-title h1",
		".job-details-jobs-unified-top-card__job-title",
	}
	companySels = []string{
		"div.job-details-jobs-unified-top-card__company-name > a",
		"div.job-details-jobs-unified-top-card__company-name",
	}
	locationSels = []string{
		"div.job-details-jobs-unified-top-card__primary-description-container > div > span",
		".job-details-jobs-unified-top-card__primary-description-container",
	}
)

// LinkedInScraper reads the authenticated jobs search: cards on the left, detail pane on the right.
type LinkedInScraper struct {
	baseURL string
	log     *slog.Logger
}

func NewLinkedInScraper(baseURL string, logger *slog.Logger) *LinkedInScraper {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkedInScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("component", "adapter", "site", site),
	}
}

func (s *LinkedInScraper) Site() string {
	return site
}

func (s *LinkedInScraper) BuildSearchURL(q models.SearchQuery) (string, error) {
	v := url.Values{}
	v.Set("keywords", q.JobTitle)
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.HoursWithin > 0 {
		v.Set("f_TPR", "r"+strconv.Itoa(q.HoursWithin*3600))
	}
	if q.ExpLevel != models.ExpAny {
		code, ok := expCodes[q.ExpLevel]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "experience level", Value: string(q.ExpLevel)}
		}
		v.Set("f_E", code)
	}
	if q.JobType != models.JobTypeAny {
		code, ok := jobTypeCodes[q.JobType]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "job type", Value: string(q.JobType)}
		}
		v.Set("f_JT", code)
	}
	if q.Workplace != models.WorkplaceAny {
		code, ok := workplaceCodes[q.Workplace]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "workplace", Value: string(q.Workplace)}
		}
		v.Set("f_WT", code)
	}
	return s.baseURL + "/jobs/search/?" + v.Encode(), nil
}

// Units scrolls the lazy results list, then returns every card carrying a job ID.
func (s *LinkedInScraper) Units(ctx context.Context, nav *scraper.Navigator, st *scraper.State) ([]scraper.Unit, error) {
	page := nav.Page()
	if err := page.Scroll(ctx, listSel); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Debug("results list not scrollable", "error", err)
	}

	cards, err := page.Query(cardSel)
	if err != nil {
		return nil, scraper.ErrExtraction{Site: site, Unit: "results page", Err: err}
	}
	units := make([]scraper.Unit, 0, len(cards))
	for _, card := range cards {
		id, err := card.Attr("data-occludable-job-id")
		if err != nil || strings.TrimSpace(id) == "" {
			continue
		}
		units = append(units, scraper.Unit{ID: strings.TrimSpace(id), Element: card})
	}
	return units, nil
}

// Extract opens the card in the detail pane and reads it.
func (s *LinkedInScraper) Extract(ctx context.Context, nav *scraper.Navigator, st *scraper.State, u scraper.Unit) (models.Posting, error) {
	if u.Element == nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: browser.ErrNoElement}
	}
	link, err := browser.First(u.Element, cardLinkSels...)
	if err != nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	if err := nav.Click(ctx, link); err != nil {
		if scraper.IsSessionFatal(err) {
			return models.Posting{}, err
		}
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}

	page := nav.Page()
	title, err := browser.TextOf(page, titleSels...)
	if err != nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
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
		URL:      s.baseURL + "/jobs/view/" + u.ID,
	}
	if st.Query().FetchDescription {
		p.Description, _ = browser.TextOf(page, descSel)
	}
	return p, nil
}

// NextPage clicks the pagination "next" button when it is present and enabled.
func (s *LinkedInScraper) NextPage(ctx context.Context, nav *scraper.Navigator, st *scraper.State) (bool, error) {
	btn, err := browser.First(nav.Page(), nextSel)
	if err != nil {
		if errors.Is(err, browser.ErrNoElement) {
			return false, nil
		}
		return false, err
	}
	if disabled, _ := btn.Attr("aria-disabled"); disabled == "true" {
		return false, nil
	}
	if err := nav.Click(ctx, btn); err != nil {
		return false, err
	}
	return true, nil
}

package topcv

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/filter"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	site           = "topcv"
	defaultBaseURL = "https://www.topcv.vn"
)

// exp: 1 no experience, 2 under a year, 3 one year, 5 three years, 8 over five years.
var expCodes = map[models.ExpLevel]int{
	models.ExpInternship: 1,
	models.ExpEntry:      2,
	models.ExpAssociate:  3,
	models.ExpMidSenior:  5,
	models.ExpDirector:   8,
	models.ExpExecutive:  8,
}

var (
	cardSels     = []string{".job-item-search-result", ".job-item"}
	titleSels    = []string{"h3.title a", ".title-block a", "a.title"}
	companySels  = []string{".company-name", "a.company"}
	locationSels = []string{".address", ".location", ".label-address"}
	descSels     = []string{".job-description__item--content", ".job-description"}
)

const (
	emptySel  = ".none-suitable-job"
	surveySel = "#modal-survey-reliability .btn-cancel"
	nextSel   = `.pagination a[rel="next"]`
)

var jobIDFromURL = regexp.MustCompile(`(\d+)\.html`)

type TopCVScraper struct {
	baseURL string
	log     *slog.Logger
}

func NewTopCVScraper(baseURL string, logger *slog.Logger) *TopCVScraper {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TopCVScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("component", "adapter", "site", site),
	}
}

func (s *TopCVScraper) Site() string {
	return site
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// slug turns "Lập trình viên Golang" into "lap-trinh-vien-golang".
func slug(s string) string {
	s = strings.ReplaceAll(normalizeText(s), "đ", "d")
	var b strings.Builder
	dash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildSearchURL ignores location and recency: the keyword URL does not take them.
func (s *TopCVScraper) BuildSearchURL(q models.SearchQuery) (string, error) {
	v := url.Values{}
	if q.ExpLevel != models.ExpAny {
		code, ok := expCodes[q.ExpLevel]
		if !ok {
			return "", scraper.ErrUnsupportedFilter{Site: site, Field: "experience level", Value: string(q.ExpLevel)}
		}
		v.Set("exp", strconv.Itoa(code))
	}
	if q.JobType != models.JobTypeAny {
		return "", scraper.ErrUnsupportedFilter{Site: site, Field: "job type", Value: string(q.JobType)}
	}
	if q.Workplace != models.WorkplaceAny {
		return "", scraper.ErrUnsupportedFilter{Site: site, Field: "workplace", Value: string(q.Workplace)}
	}
	v.Set("sort", "new")
	v.Set("type_keyword", "1")
	return s.baseURL + "/tim-viec-lam-" + slug(q.JobTitle) + "?" + v.Encode(), nil
}

func (s *TopCVScraper) Units(ctx context.Context, nav *scraper.Navigator, st *scraper.State) ([]scraper.Unit, error) {
	page := nav.Page()
	s.dismissSurvey(ctx, page)
	st.NextURL, _ = browser.AttrOf(page, "href", nextSel)

	if empty, _ := page.Query(emptySel); len(empty) > 0 {
		return nil, nil
	}

	var cards []browser.Element
	for _, sel := range cardSels {
		els, err := page.Query(sel)
		if err != nil {
			return nil, scraper.ErrExtraction{Site: site, Unit: "results page", Err: err}
		}
		if len(els) > 0 {
			cards = els
			break
		}
	}

	units := make([]scraper.Unit, 0, len(cards))
	for _, card := range cards {
		id := s.cardID(card)
		if id == "" {
			continue
		}
		units = append(units, scraper.Unit{ID: id, Element: card})
	}
	return units, nil
}

func (s *TopCVScraper) cardID(card browser.Element) string {
	if id, _ := card.Attr("data-job-id"); strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	href, err := browser.AttrOf(card, "href", titleSels...)
	if err != nil {
		return ""
	}
	if m := jobIDFromURL.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// dismissSurvey closes the survey modal when it shows. Failure only costs a log line.
func (s *TopCVScraper) dismissSurvey(ctx context.Context, page browser.Page) {
	btns, err := page.Query(surveySel)
	if err != nil || len(btns) == 0 {
		return
	}
	s.log.Debug("closing survey modal")
	if err := btns[0].Click(ctx); err != nil {
		s.log.Debug("survey modal not closed", "error", err)
	}
}

// Extract reads the card in place; the detail page is opened only for the description.
func (s *TopCVScraper) Extract(ctx context.Context, nav *scraper.Navigator, st *scraper.State, u scraper.Unit) (models.Posting, error) {
	if u.Element == nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: browser.ErrNoElement}
	}
	titleEl, err := browser.First(u.Element, titleSels...)
	if err != nil {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	title, _ := titleEl.Text()
	href, _ := titleEl.Attr("href")

	company, err := browser.TextOf(u.Element, companySels...)
	if err != nil && !errors.Is(err, browser.ErrNoElement) {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: err}
	}
	location, _ := browser.TextOf(u.Element, locationSels...)

	p := models.Posting{
		ID:       u.ID,
		Title:    strings.TrimSpace(title),
		Company:  company,
		Location: location,
		URL:      s.absolute(href),
	}
	if p.Title == "" {
		return models.Posting{}, scraper.ErrExtraction{Site: site, Unit: u.ID, Err: errors.New("empty title")}
	}

	// Only load the detail page for postings that will survive the gate.
	if st.Query().FetchDescription && p.URL != "" && filter.Evaluate(st.Query(), p.Company, p.Title).Accepted {
		results := nav.Page().URL()
		if err := nav.Load(ctx, p.URL); err != nil {
			return models.Posting{}, err
		}
		p.Description, _ = browser.TextOf(nav.Page(), descSels...)
		// remaining cards live on the results page
		if err := nav.Load(ctx, results); err != nil {
			return models.Posting{}, err
		}
	}
	return p, nil
}

func (s *TopCVScraper) absolute(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, _ := url.Parse(s.baseURL)
	return base.ResolveReference(ref).String()
}

func (s *TopCVScraper) NextPage(ctx context.Context, nav *scraper.Navigator, st *scraper.State) (bool, error) {
	next := st.NextURL
	st.NextURL = ""
	if next == "" || strings.HasPrefix(next, "javascript") {
		return false, nil
	}
	if err := nav.Load(ctx, s.absolute(next)); err != nil {
		return false, err
	}
	return true, nil
}

package reporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-jobscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func sampleResult() models.RunResult {
	return models.RunResult{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 3, 4, 9, 7, 0, 0, time.UTC),
		Postings: []models.Posting{
			{ID: "1", Site: "indeed", SearchTitle: "go", Title: "Go Dev", Company: "Acme, Inc.", URL: "https://x/1", Location: "Remote", Validated: true, Comment: models.CommentGood},
			{ID: "2", Site: "linkedin", SearchTitle: "go", Title: "Gopher", Company: "Zeta", URL: "https://x/2", Validated: true},
		},
		Tasks: []models.TaskSummary{{Site: "indeed", Scraped: 3, AlreadySeen: 1, Dropped: 1, Reported: 1}},
	}
}

func TestCSVSink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewCSVSink(dir, nil).Write(context.Background(), sampleResult()))

	f, err := os.Open(filepath.Join(dir, "2026-03-04_09-07.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"go", "indeed", "1", "Go Dev", "Acme, Inc.", "https://x/1", "Remote", "good", "true"}, rows[1])
	assert.Equal(t, "n/a", rows[2][7], "unclassified posting")
}

func TestCSVSink_SameMinuteRunsKeepBothReports(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir, nil)

	first := sampleResult()
	first.Postings = first.Postings[:1]
	second := sampleResult()
	second.StartedAt = first.StartedAt.Add(40 * time.Second)
	second.Postings = second.Postings[1:]

	require.NoError(t, sink.Write(context.Background(), first))
	require.NoError(t, sink.Write(context.Background(), second))

	reports, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	require.NoError(t, err)
	require.Len(t, reports, 2)

	read := func(name string) [][]string {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		return rows
	}
	assert.Equal(t, "1", read("2026-03-04_09-07.csv")[1][2])
	assert.Equal(t, "2", read("2026-03-04_09-07_2.csv")[1][2])
}

func TestCSVSink_EmptyResultWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, NewCSVSink(dir, nil).Write(context.Background(), models.RunResult{}))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestDualSink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewDualSink(dir, nil).Write(context.Background(), sampleResult()))

	assert.FileExists(t, filepath.Join(dir, "2026-03-04_09-07.csv"))
	data, err := os.ReadFile(filepath.Join(dir, "2026-03-04_09-07.jsonl"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var p models.Posting
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &p))
	assert.Equal(t, "linkedin/2", p.Key())
}

type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4"), f.err
}

func TestPDFSink(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRenderer{}
	res := sampleResult()
	res.Postings[1].Title = "<script>alert(1)</script>"

	require.NoError(t, NewPDFSink(dir, r, nil).Write(context.Background(), res))

	assert.Contains(t, r.html, `<a href="https://x/1">Go Dev</a>`)
	assert.Contains(t, r.html, `class="good">good`)
	assert.NotContains(t, r.html, "<script>", "titles are escaped")
	data, err := os.ReadFile(filepath.Join(dir, "2026-03-04_09-07.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, models.RunResult) error {
	f.calls++
	return errors.New("disk full")
}

func TestMultiSink_ContinuesAfterFailure(t *testing.T) {
	first, second := &failingSink{}, &failingSink{}
	err := MultiSink{first, nil, second}.Write(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

type recordingBot struct {
	sent []tgbotapi.MessageConfig
}

func (r *recordingBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramSink(t *testing.T) {
	bot := &recordingBot{}
	sink := newTelegramSink(bot, 42, 1, nil)

	require.NoError(t, sink.Write(context.Background(), sampleResult()))
	require.Len(t, bot.sent, 2, "summary plus one posting")

	summary := bot.sent[0]
	assert.Equal(t, int64(42), summary.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, summary.ParseMode)
	assert.Contains(t, summary.Text, "2 new postings")

	posting := bot.sent[1].Text
	assert.Contains(t, posting, "*Go Dev*")
	assert.Contains(t, posting, "Acme, Inc\\.")
	assert.Contains(t, posting, "[View Job](https://x/1)")
	assert.NotNil(t, bot.sent[1].ReplyMarkup)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `C\+\+ \(senior\) \- 5\.0\!`, escapeMarkdown("C++ (senior) - 5.0!"))
	assert.Equal(t, `a\\b`, escapeMarkdown(`a\b`))
}

func TestNewTelegramSink_BotAPI(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "https://api.telegram.org/botTOKEN/getMe",
		httpmock.NewStringResponder(200, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"scout","username":"scout_bot"}}`))
	mt.RegisterResponder(http.MethodPost, "https://api.telegram.org/botTOKEN/sendMessage",
		httpmock.NewStringResponder(200, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))

	sink, err := NewTelegramSink("TOKEN", 42, 5, &http.Client{Transport: mt}, nil)
	require.NoError(t, err)
	sink.limit = rate.NewLimiter(rate.Inf, 1)
	require.NoError(t, sink.Write(context.Background(), sampleResult()))

	calls := mt.GetCallCountInfo()
	assert.Equal(t, 1, calls["POST https://api.telegram.org/botTOKEN/getMe"])
	assert.Equal(t, 3, calls["POST https://api.telegram.org/botTOKEN/sendMessage"])
}

func TestNewTelegramSink_BadToken(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "https://api.telegram.org/botBAD/getMe",
		httpmock.NewStringResponder(401, `{"ok":false,"error_code":401,"description":"Unauthorized"}`))

	_, err := NewTelegramSink("BAD", 42, 5, &http.Client{Transport: mt}, nil)
	assert.ErrorContains(t, err, "telegram")
}

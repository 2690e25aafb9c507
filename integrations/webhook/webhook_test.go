package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acrossfc/core"
	"acrossfc/discord"
	"acrossfc/report"
)

type posted struct {
	Path     string
	Content  string `json:"content"`
	Username string `json:"username"`
}

type capture struct {
	mu     sync.Mutex
	bodies []posted
}

func (c *capture) sink(t *testing.T, status int, urls []string, opts ...Option) *Sink {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p posted
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.Path = r.URL.Path
		c.mu.Lock()
		c.bodies = append(c.bodies, p)
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	session, err := discord.NewSession("", srv.URL, 0)
	require.NoError(t, err)
	sink, err := New(urls, append([]Option{WithSession(session)}, opts...)...)
	require.NoError(t, err)
	return sink
}

const hookURL = "https://discord.com/api/webhooks/123/tok"

func TestPublishReportPostsMarkdown(t *testing.T) {
	var c capture
	sink := c.sink(t, http.StatusNoContent, []string{hookURL, "https://discord.com/api/webhooks/456/other"}, WithUsername("Across"))

	r := report.Report{Emoji: ":x:", Title: "T", Data: "a  b"}
	require.NoError(t, sink.PublishReport(context.Background(), r))

	require.Len(t, c.bodies, 2)
	assert.Equal(t, r.Markdown(), c.bodies[0].Content)
	assert.Equal(t, "Across", c.bodies[0].Username)
	assert.Equal(t, "/webhooks/123/tok", c.bodies[0].Path)
	assert.Equal(t, "/webhooks/456/other", c.bodies[1].Path)
}

func TestPublishReportErrors(t *testing.T) {
	var c capture
	sink := c.sink(t, http.StatusBadRequest, []string{hookURL})

	err := sink.PublishReport(context.Background(), report.Report{Title: "T"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	long := report.Report{Title: "T", Data: strings.Repeat("x", MaxContentLength)}
	require.ErrorIs(t, sink.PublishReport(context.Background(), long), ErrContentTooLong)
}

func TestOnEventPostsNotice(t *testing.T) {
	var c capture
	sink := c.sink(t, http.StatusNoContent, []string{hookURL})

	ev := core.NewPointsEvent("id", 7, core.CategoryFCSavage, "FC clear: P9S", 1)
	sink.OnEvent(context.Background(), ev)

	require.Len(t, c.bodies, 1)
	assert.Equal(t, AwardNotice(ev), c.bodies[0].Content)
	assert.Contains(t, c.bodies[0].Content, "Member 7")
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New([]string{"https://example.com/not-a-webhook"})
	require.Error(t, err)
}

func TestNoEndpointsIsNoop(t *testing.T) {
	sink, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, sink.PublishReport(context.Background(), report.Report{Title: "T"}))
}

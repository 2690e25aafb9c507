package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"acrossfc/core"
)

// Submission is a fight submitted for FC points.
type Submission struct {
	FFLogsURL string `json:"fflogs_url"`
	IsFCPF    bool   `json:"is_fc_pf"`
	IsStatic  bool   `json:"is_static"`
	FCPFID    string `json:"fc_pf_id,omitempty"`
}

// Evaluation mirrors the evaluator's JSON output.
type Evaluation struct {
	Fight       core.FightData     `json:"fight"`
	Submission  Submission         `json:"submission"`
	FCMembers   []core.Member      `json:"fc_members"`
	Veterans    []core.Member      `json:"veterans"`
	FirstClears []core.Member      `json:"first_clears"`
	Events      []core.PointsEvent `json:"events"`
}

// SubmitResult mirrors a persisted submission.
type SubmitResult struct {
	Evaluation Evaluation              `json:"evaluation"`
	Awarded    []core.PointsEvent      `json:"awarded"`
	Skipped    []core.PointsEvent      `json:"skipped"`
	Totals     map[core.MemberID]int64 `json:"totals"`
}

// MemberPoints mirrors a member's points in a tier.
type MemberPoints struct {
	MemberID core.MemberID       `json:"member_id"`
	Tier     string              `json:"tier"`
	Total    int64               `json:"total"`
	OneTime  map[string]struct{} `json:"one_time"`
	Updated  time.Time           `json:"updated"`
}

// LeaderboardEntry is one ranked member.
type LeaderboardEntry struct {
	Member core.MemberID `json:"member_id"`
	Score  int64         `json:"score"`
	Rank   int           `json:"rank"`
}

// Leaderboard is the top of the current tier.
type Leaderboard struct {
	Tier    string             `json:"tier"`
	Entries []LeaderboardEntry `json:"entries"`
}

// Report is a rendered report and its markdown.
type Report struct {
	Report struct {
		Emoji       string `json:"emoji"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Data        string `json:"data"`
	} `json:"report"`
	Markdown string `json:"markdown"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Tier   string                 `json:"tier"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is a non-2xx API response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: status %d: %s: %s", e.Status, e.Code, e.Message)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyURL is returned when a submission has no FFLogs URL.
var ErrEmptyURL = errors.New("fflogs url is required")

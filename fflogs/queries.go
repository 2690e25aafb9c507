package fflogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"acrossfc/core"
)

const reportQuery = `
query getReportData($report_id: String!, $fight_id: Int!) {
	reportData {
		report(code: $report_id) {
			startTime
			fights(fightIDs: [$fight_id]) {
				encounterID
				difficulty
				startTime
			}
			playerDetails(fightIDs: [$fight_id])
		}
	}
}`

type reportData struct {
	ReportData struct {
		Report *struct {
			StartTime int64 `json:"startTime"`
			Fights    []struct {
				EncounterID int   `json:"encounterID"`
				Difficulty  *int  `json:"difficulty"`
				StartTime   int64 `json:"startTime"`
			} `json:"fights"`
			PlayerDetails struct {
				Data struct {
					PlayerDetails map[string][]playerDetail `json:"playerDetails"`
				} `json:"data"`
			} `json:"playerDetails"`
		} `json:"report"`
	} `json:"reportData"`
}

type playerDetail struct {
	Name string `json:"name"`
}

// roleOrder lists player detail roles in display order; unknown roles follow sorted.
var roleOrder = []string{"tanks", "healers", "dps"}

// GetFightData fetches one fight of a report. Fights of encounters outside
// the catalog come back with Tracked set to false.
func (c *Client) GetFightData(ctx context.Context, fflogsURL string) (core.FightData, error) {
	code, fightID, err := ParseReportURL(fflogsURL)
	if err != nil {
		return core.FightData{}, err
	}
	c.logger.Info("getting fight data", "report", code, "fight", fightID)

	var data reportData
	vars := map[string]any{"report_id": code, "fight_id": fightID}
	if err := c.query(ctx, reportQuery, vars, &data); err != nil {
		return core.FightData{}, fmt.Errorf("failed to get report %s: %w", code, err)
	}
	report := data.ReportData.Report
	if report == nil {
		return core.FightData{}, fmt.Errorf("report %s not found", code)
	}
	if len(report.Fights) == 0 {
		return core.FightData{}, fmt.Errorf("fight %d not found in report %s", fightID, code)
	}
	fight := report.Fights[0]
	difficulty := 0
	if fight.Difficulty != nil {
		difficulty = *fight.Difficulty
	}

	out := core.FightData{
		ReportID:    code,
		FightID:     fightID,
		StartTime:   time.UnixMilli(report.StartTime + fight.StartTime).UTC(),
		PlayerNames: flattenPlayers(report.PlayerDetails.Data.PlayerDetails),
	}
	if e, ok := core.FindEncounter(fight.EncounterID, difficulty); ok {
		out.Encounter = e
		out.Tracked = true
	} else {
		out.Encounter = core.Encounter{EncounterID: fight.EncounterID, DifficultyID: difficulty}
	}
	return out, nil
}

func flattenPlayers(roles map[string][]playerDetail) []string {
	var extra []string
	for role := range roles {
		known := false
		for _, r := range roleOrder {
			if r == role {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, role)
		}
	}
	sort.Strings(extra)
	var names []string
	for _, role := range append(append([]string{}, roleOrder...), extra...) {
		for _, p := range roles[role] {
			names = append(names, p.Name)
		}
	}
	return names
}

const guildQuery = `
query getGuildData($id: Int!) {
	guildData {
		guild(id: $id) {
			members {
				data {
					id
					name
					guildRank
				}
			}
		}
	}
}`

type guildData struct {
	GuildData struct {
		Guild *struct {
			Members struct {
				Data []struct {
					ID        int64  `json:"id"`
					Name      string `json:"name"`
					GuildRank int    `json:"guildRank"`
				} `json:"data"`
			} `json:"members"`
		} `json:"guild"`
	} `json:"guildData"`
}

// GetFCRoster returns the guild roster without excluded ranks. The result is
// cached for the lifetime of the client.
func (c *Client) GetFCRoster(ctx context.Context) ([]core.Member, error) {
	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()
	if c.roster != nil {
		return append([]core.Member(nil), c.roster...), nil
	}

	var data guildData
	if err := c.query(ctx, guildQuery, map[string]any{"id": c.cfg.GuildID}, &data); err != nil {
		return nil, fmt.Errorf("failed to get guild %d: %w", c.cfg.GuildID, err)
	}
	if data.GuildData.Guild == nil {
		return nil, fmt.Errorf("guild %d not found", c.cfg.GuildID)
	}
	excluded := make(map[int]struct{}, len(c.cfg.ExcludeRanks))
	for _, r := range c.cfg.ExcludeRanks {
		excluded[r] = struct{}{}
	}
	roster := []core.Member{}
	byID := map[core.MemberID]core.Member{}
	for _, d := range data.GuildData.Guild.Members.Data {
		if _, skip := excluded[d.GuildRank]; skip {
			continue
		}
		m := core.Member{ID: core.MemberID(d.ID), Name: d.Name, Rank: d.GuildRank}
		roster = append(roster, m)
		byID[m.ID] = m
	}
	c.roster = roster
	c.byID = byID
	c.logger.Info("loaded fc roster", "members", len(roster))
	return append([]core.Member(nil), roster...), nil
}

const characterGuildsQuery = `
query getCharacterData($id: Int!) {
	characterData {
		character(id: $id) {
			guilds {
				id
			}
		}
	}
}`

type characterGuilds struct {
	CharacterData struct {
		Character *struct {
			Guilds []struct {
				ID int `json:"id"`
			} `json:"guilds"`
		} `json:"character"`
	} `json:"characterData"`
}

// IsMemberInGuild answers from the cached roster when it is loaded and asks
// FFLogs for the character's guilds otherwise.
func (c *Client) IsMemberInGuild(ctx context.Context, member core.MemberID) (bool, error) {
	c.rosterMu.Lock()
	byID := c.byID
	c.rosterMu.Unlock()
	if byID != nil {
		_, ok := byID[member]
		return ok, nil
	}

	var data characterGuilds
	if err := c.query(ctx, characterGuildsQuery, map[string]any{"id": int64(member)}, &data); err != nil {
		return false, fmt.Errorf("failed to get guilds of %d: %w", member, err)
	}
	ch := data.CharacterData.Character
	if ch == nil {
		return false, nil
	}
	for _, g := range ch.Guilds {
		if g.ID == c.cfg.GuildID {
			return true, nil
		}
	}
	return false, nil
}

type encounterRankings struct {
	Error      string `json:"error"`
	TotalKills int    `json:"totalKills"`
	Ranks      []struct {
		StartTime         int64   `json:"startTime"`
		HistoricalPercent float64 `json:"historicalPercent"`
		Report            struct {
			Code    string `json:"code"`
			FightID int    `json:"fightID"`
		} `json:"report"`
		Spec     string          `json:"spec"`
		LockedIn json.RawMessage `json:"lockedIn"`
	} `json:"ranks"`
}

type characterRankings struct {
	CharacterData struct {
		Character map[string]json.RawMessage `json:"character"`
	} `json:"characterData"`
}

// clearsQuery builds one aliased encounterRankings field per encounter.
func clearsQuery(encounters []core.Encounter) string {
	var b strings.Builder
	b.WriteString("query getCharacterData($id: Int!) {\n\tcharacterData {\n\t\tcharacter(id: $id) {\n")
	for _, e := range encounters {
		fmt.Fprintf(&b, "\t\t\t%s: encounterRankings(encounterID: %d, difficulty: %s, partition: %s)\n",
			e.ID, e.EncounterID, optionalInt(e.DifficultyID), optionalInt(e.PartitionID))
	}
	b.WriteString("\t\t}\n\t}\n}")
	return b.String()
}

func optionalInt(v int) string {
	if v == 0 {
		return "null"
	}
	return fmt.Sprint(v)
}

// GetClearsForMember returns the member's kills of the given encounters.
// Encounters FFLogs reports an error for are logged and skipped.
func (c *Client) GetClearsForMember(ctx context.Context, member core.Member, encounters []core.Encounter) ([]core.Clear, error) {
	encounters = distinctByID(encounters)
	if len(encounters) == 0 {
		return nil, nil
	}

	var data characterRankings
	if err := c.query(ctx, clearsQuery(encounters), map[string]any{"id": int64(member.ID)}, &data); err != nil {
		return nil, fmt.Errorf("failed to get rankings of %s: %w", member.Name, err)
	}
	if data.CharacterData.Character == nil {
		c.logger.Warn("character not found", "member", member.Name, "id", member.ID)
		return nil, nil
	}

	var clears []core.Clear
	for _, e := range encounters {
		raw, ok := data.CharacterData.Character[e.ID]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var r encounterRankings
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode rankings for %s: %w", e.ID, err)
		}
		if r.Error != "" {
			c.logger.Info("unable to get kill data", "member", member.Name, "encounter", e.ID, "error", r.Error)
			continue
		}
		if r.TotalKills == 0 {
			continue
		}
		for _, k := range r.Ranks {
			job, ok := core.JobByName(k.Spec)
			if !ok {
				job = core.Job{Name: k.Spec}
			}
			clears = append(clears, core.Clear{
				MemberID:      member.ID,
				Encounter:     e,
				StartTime:     time.UnixMilli(k.StartTime).UTC(),
				HistoricalPct: k.HistoricalPercent,
				ReportCode:    k.Report.Code,
				ReportFightID: k.Report.FightID,
				Job:           job,
				LockedIn:      parseLockedIn(k.LockedIn),
			})
		}
	}
	return clears, nil
}

// parseLockedIn accepts a JSON boolean or the string "true".
func parseLockedIn(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "true"
	}
	return false
}

func distinctByID(encounters []core.Encounter) []core.Encounter {
	seen := make(map[string]struct{}, len(encounters))
	out := make([]core.Encounter, 0, len(encounters))
	for _, e := range encounters {
		if _, ok := seen[e.ID]; ok || e.ID == "" {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"acrossfc/core"
)

// ClearRate is the share of the roster that cleared an encounter.
type ClearRate struct {
	Encounter string  `json:"encounter"`
	Clears    int     `json:"clears"`
	Eligible  int     `json:"eligible"`
	Rate      float64 `json:"rate"`
}

// ComputeClearRates returns one rate per encounter name. Every roster member
// is eligible; a member counts once however many times they cleared.
func ComputeClearRates(roster []core.Member, clears []core.Clear, encounterNames []string) []ClearRate {
	inRoster := make(map[core.MemberID]struct{}, len(roster))
	for _, m := range roster {
		inRoster[m.ID] = struct{}{}
	}
	cleared := map[string]map[core.MemberID]struct{}{}
	for _, c := range clears {
		if _, ok := inRoster[c.MemberID]; !ok {
			continue
		}
		set, ok := cleared[c.Encounter.Name]
		if !ok {
			set = map[core.MemberID]struct{}{}
			cleared[c.Encounter.Name] = set
		}
		set[c.MemberID] = struct{}{}
	}

	rates := make([]ClearRate, 0, len(encounterNames))
	for _, name := range encounterNames {
		r := ClearRate{Encounter: name, Clears: len(cleared[name]), Eligible: len(inRoster)}
		if r.Eligible > 0 {
			r.Rate = float64(r.Clears) / float64(r.Eligible)
		}
		rates = append(rates, r)
	}
	return rates
}

// ClearRates renders the clear rate report dated today.
func ClearRates(roster []core.Member, clears []core.Clear, encounterNames []string, today time.Time) Report {
	rates := ComputeClearRates(roster, clears, encounterNames)
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{
			r.Encounter,
			fmt.Sprintf("%d / %d", r.Clears, r.Eligible),
			fmt.Sprintf("%.2f%%", r.Rate*100),
		})
	}
	return Report{
		Emoji: ":white_check_mark:",
		Title: "Across Clear Rates: " + today.Format(time.DateOnly),
		Data:  simpleTable([]string{"Encounter", "FC clears", "FC clear rate"}, rows),
	}
}

// MemberJobs lists the distinct jobs a member cleared an encounter on.
type MemberJobs struct {
	Member core.Member `json:"member"`
	Jobs   []core.Job  `json:"jobs"`
}

// ComputeClearedJobs groups each encounter's clears by roster member. Members
// are ordered by job count descending, then by name.
func ComputeClearedJobs(roster []core.Member, clears []core.Clear, encounterNames []string) map[string][]MemberJobs {
	byID := make(map[core.MemberID]core.Member, len(roster))
	for _, m := range roster {
		byID[m.ID] = m
	}
	sorted := append([]core.Clear(nil), clears...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	out := make(map[string][]MemberJobs, len(encounterNames))
	for _, name := range encounterNames {
		index := map[core.MemberID]int{}
		var entries []MemberJobs
		for _, c := range sorted {
			m, ok := byID[c.MemberID]
			if !ok || c.Encounter.Name != name {
				continue
			}
			i, ok := index[m.ID]
			if !ok {
				i = len(entries)
				index[m.ID] = i
				entries = append(entries, MemberJobs{Member: m})
			}
			if !hasJob(entries[i].Jobs, c.Job) {
				entries[i].Jobs = append(entries[i].Jobs, c.Job)
			}
		}
		sort.SliceStable(entries, func(a, b int) bool {
			if len(entries[a].Jobs) != len(entries[b].Jobs) {
				return len(entries[a].Jobs) > len(entries[b].Jobs)
			}
			return entries[a].Member.Name < entries[b].Member.Name
		})
		out[name] = entries
	}
	return out
}

func hasJob(jobs []core.Job, j core.Job) bool {
	for _, x := range jobs {
		if x == j {
			return true
		}
	}
	return false
}

// ClearedJobsByMember renders one Member/Total/Jobs table per encounter name.
func ClearedJobsByMember(roster []core.Member, clears []core.Clear, encounterNames []string) Report {
	grouped := ComputeClearedJobs(roster, clears, encounterNames)
	var b strings.Builder
	for i, name := range encounterNames {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + name + "]\n\n")
		rows := make([][]string, 0, len(grouped[name]))
		for _, e := range grouped[name] {
			tlas := make([]string, 0, len(e.Jobs))
			for _, j := range e.Jobs {
				tla := j.TLA
				if tla == "" {
					tla = j.Name
				}
				tlas = append(tlas, tla)
			}
			rows = append(rows, []string{e.Member.Name, strconv.Itoa(len(e.Jobs)), strings.Join(tlas, ", ")})
		}
		b.WriteString(simpleTable([]string{"Member", "Total", "Jobs"}, rows))
	}
	return Report{
		Emoji:       ":white_check_mark:",
		Title:       "Cleared Jobs by Member:",
		Description: "Names displayed in alphabetical order",
		Data:        b.String(),
	}
}

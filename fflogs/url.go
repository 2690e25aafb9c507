package fflogs

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"acrossfc/core"
)

var (
	reportPath    = regexp.MustCompile(`.*/reports/(.*)$`)
	fightFragment = regexp.MustCompile(`^fight=(\d+)`)
)

// ParseReportURL extracts the report code and fight id from a link such as
// https://www.fflogs.com/reports/AbCd1234#fight=7.
func ParseReportURL(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", core.ErrInvalidFFLogsURL, raw)
	}
	m := reportPath.FindStringSubmatch(u.Path)
	if m == nil || m[1] == "" {
		return "", 0, fmt.Errorf("%w: path does not match /reports/<code>: %s", core.ErrInvalidFFLogsURL, raw)
	}
	f := fightFragment.FindStringSubmatch(u.Fragment)
	if f == nil {
		return "", 0, fmt.Errorf("%w: fragment does not match fight=<id>: %s", core.ErrInvalidFFLogsURL, raw)
	}
	fight, err := strconv.Atoi(f[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", core.ErrInvalidFFLogsURL, raw)
	}
	return m[1], fight, nil
}

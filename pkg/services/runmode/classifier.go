package runmode

import (
	"strings"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
)

const (
	dailySuffix  = "_daily"
	ytdLabel     = "YTD"
	suffixPrefix = " - "
	markerPrefix = "[TEST] "
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Classify decides the run mode from the title convention.
// Titles without a recognised suffix are treated as monthly so peak sections
// are never dropped silently.
func Classify(title string) domain.RunMode {
	if strings.HasSuffix(title, dailySuffix) {
		return domain.RunModeDaily
	}
	return domain.RunModeMonthly
}

// IsPeriodTitle reports whether the title ends with " - <Month>" or " - YTD".
func IsPeriodTitle(title string) bool {
	_, ok := periodSuffix(title)
	return ok
}

// BaseTitle strips the daily, month or YTD suffix from a title.
func BaseTitle(title string) string {
	if strings.HasSuffix(title, dailySuffix) {
		title = strings.TrimSuffix(title, dailySuffix)
	}
	if suffix, ok := periodSuffix(title); ok {
		title = strings.TrimSuffix(title, suffix)
	}
	return title
}

func MonthlyTitle(base string, month time.Month) string {
	return base + suffixPrefix + monthNames[month-1]
}

func YTDTitle(base string) string {
	return base + suffixPrefix + ytdLabel
}

func DailyTitle(base string) string {
	return base + dailySuffix
}

// MarkerTitle marks a title as a test publication without touching its suffix.
func MarkerTitle(title string) string {
	if strings.HasPrefix(title, markerPrefix) {
		return title
	}
	return markerPrefix + title
}

func periodSuffix(title string) (string, bool) {
	if strings.HasSuffix(title, suffixPrefix+ytdLabel) {
		return suffixPrefix + ytdLabel, true
	}
	for _, name := range monthNames {
		if strings.HasSuffix(title, suffixPrefix+name) {
			return suffixPrefix + name, true
		}
	}
	return "", false
}

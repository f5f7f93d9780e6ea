package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

// Result pages list one timing mat per row:
// 구간명 | 통과시간 | 구간기록 | 누적기록
const (
	colName = iota
	colPassClock
	colSplit
	colCumulative
	minCheckpointCols
)

const (
	tokenStart  = "출발"
	tokenFinish = "도착"
	tokenHalf   = "하프"

	unmappedDistance = "0km"
)

// checkpointTable maps a normalized checkpoint token to its canonical
// distance label, in race order.
var checkpointTable = []struct {
	Token    string
	Distance string
}{
	{tokenStart, "0km"},
	{"5K", "5km"},
	{"10K", "10km"},
	{"15K", "15km"},
	{"20K", "20km"},
	{tokenHalf, "21.0975km"},
	{"25K", "25km"},
	{"30K", "30km"},
	{"35K", "35km"},
	{"40K", "40km"},
	{tokenFinish, "42.195km"},
}

var (
	namePattern       = regexp.MustCompile(`^[가-힣]{2,5}$`)
	distanceToken     = regexp.MustCompile(`(?i)(\d*\.?\d+)\s*k(?:m)?\b`)
	cumulativePattern = regexp.MustCompile(`\d+:\d+:\d+`)

	nameSelectors     = []string{"h2, h3, .name, .runner-name", "td, th"}
	categorySelectors = "h2, h3, .category, .course"

	// Hangul words that look like a name but label something else.
	notNames = map[string]bool{
		"남자": true, "여자": true,
		"구간명": true, "통과시간": true, "구간기록": true, "누적기록": true,
		"기록": true, "순위": true, "종목": true,
		tokenStart: true, tokenFinish: true, tokenHalf: true,
	}

	errNoCheckpointRows = errors.New("no checkpoint rows found")
	errNoPassedRows     = errors.New("no checkpoint rows carry a cumulative time")
)

// NormalizeCheckpointToken reduces a checkpoint cell to the token used as key
// in the distance table. ok is false when the text is not checkpoint
// vocabulary at all.
func NormalizeCheckpointToken(name string) (token string, ok bool) {
	trimmed := strings.TrimSpace(name)
	upper := strings.ToUpper(trimmed)

	switch {
	case trimmed == tokenStart || upper == "START":
		return tokenStart, true
	case trimmed == tokenFinish || upper == "FINISH":
		return tokenFinish, true
	case strings.Contains(trimmed, tokenHalf) || strings.Contains(upper, "HALF"):
		return tokenHalf, true
	}

	if m := distanceToken.FindStringSubmatch(trimmed); m != nil {
		return m[1] + "K", true
	}
	return "", false
}

// CanonicalDistance returns the distance label of a checkpoint name.
// Names that are not in the table map to "0km".
func CanonicalDistance(name string) string {
	token, ok := NormalizeCheckpointToken(name)
	if !ok {
		return unmappedDistance
	}
	for _, entry := range checkpointTable {
		if entry.Token == token {
			return entry.Distance
		}
	}
	return unmappedDistance
}

// ParseResultPage extracts the runner's name, category and checkpoint rows
// from a rendered result page.
func ParseResultPage(html string) (*models.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperr.Parse(fmt.Errorf("read html: %w", err))
	}

	checkpoints := extractCheckpoints(doc)
	if len(checkpoints) == 0 {
		return nil, apperr.Parse(errNoCheckpointRows)
	}

	anyPassed := false
	for _, cp := range checkpoints {
		if cp.Passed {
			anyPassed = true
			break
		}
	}
	if !anyPassed {
		return nil, apperr.Parse(errNoPassedRows)
	}

	return &models.Extraction{
		Name:        extractName(doc),
		Category:    extractCategory(doc),
		Checkpoints: checkpoints,
	}, nil
}

func extractName(doc *goquery.Document) string {
	for _, selector := range nameSelectors {
		name := ""
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if namePattern.MatchString(text) && !notNames[text] {
				name = text
				return false
			}
			return true
		})
		if name != "" {
			return name
		}
	}
	return ""
}

func extractCategory(doc *goquery.Document) string {
	category := ""
	doc.Find(categorySelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "Full" || text == "10K" || strings.Contains(text, "풀") || strings.Contains(text, tokenHalf) {
			category = text
			return false
		}
		return true
	})
	if category == "" {
		return models.DefaultCategory
	}
	return category
}

func extractCheckpoints(doc *goquery.Document) []models.Checkpoint {
	var checkpoints []models.Checkpoint
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.ChildrenFiltered("th").Length() > 0 {
			return
		}
		cells := row.ChildrenFiltered("td")
		if cells.Length() < minCheckpointCols {
			return
		}

		name := strings.TrimSpace(cells.Eq(colName).Text())
		if _, ok := NormalizeCheckpointToken(name); !ok {
			return
		}

		cumulative := strings.TrimSpace(cells.Eq(colCumulative).Text())
		passed := cumulative != "" && cumulative != "-" && cumulativePattern.MatchString(cumulative)

		cp := models.Checkpoint{
			Name:     name,
			Distance: CanonicalDistance(name),
			Passed:   passed,
		}
		if passed {
			cp.Time = cumulative
		}
		checkpoints = append(checkpoints, cp)
	})
	return checkpoints
}

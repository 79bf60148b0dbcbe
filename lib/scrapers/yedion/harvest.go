package yedion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"acadassist-backend/lib/transcript"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// an annotation line carrying this marker makes a sub-block a
// scorable attempt; sub-blocks without it are lab/seminar components
// that never carry a final grade
const finalLectureMarker = "סופי-הרצאה"

// SubBlock is the raw text of one course sub-block inside a report
// section, before any field extraction.
type SubBlock struct {
	// the course title line, begins with the course identifier
	Title string
	// the bolded grade label, empty when the sub-block has none
	GradeLine string
	// the sub-block's in-range annotation lines
	Annotations []string
}

type Section struct {
	Name   string
	Blocks []SubBlock
}

// ReportSource yields the raw section/sub-block text of a grades
// report. The live portal document implements it, and tests feed
// captured fixtures through the same interface, so harvesting and
// normalization never need a live session.
type ReportSource interface {
	Sections(ctx context.Context) ([]Section, error)
}

type documentSource struct {
	doc *goquery.Document
}

// NewReportSource wraps a ReportReady document. The walk is tolerant:
// a section or sub-block missing an expected child is reported on the
// event sink and skipped, one malformed record must not lose the rest
// of the transcript.
func NewReportSource(doc *goquery.Document) ReportSource {
	return documentSource{doc: doc}
}

func (s documentSource) Sections(ctx context.Context) ([]Section, error) {
	root := s.doc.Find(selectorReportRoot).First()
	if len(root.Nodes) == 0 {
		return nil, fmt.Errorf("report root container not found")
	}

	var sections []Section
	root.Find("details").Each(func(idx int, details *goquery.Selection) {
		title := details.Find("summary h3")
		if len(title.Nodes) == 0 {
			slog.WarnContext(ctx, "report section missing title, skipping", "index", idx)
			return
		}
		section := Section{Name: cleanLabel(title)}

		details.Find("div.Father").Each(func(_ int, father *goquery.Selection) {
			block := SubBlock{
				Title:     cleanLabel(father.Find("div.pagetitle.InRange").First()),
				GradeLine: cleanLabel(father.Find("strong").First()),
			}
			father.Find("div.InRange").Each(func(_ int, line *goquery.Selection) {
				block.Annotations = append(block.Annotations, cleanLabel(line))
			})
			section.Blocks = append(section.Blocks, block)
		})

		sections = append(sections, section)
	})

	return sections, nil
}

// Harvest walks a report source and emits one RawAttempt per scorable
// sub-block. The sequence is finite and tied to the session that
// produced the source; re-harvesting requires a fresh scrape.
func Harvest(ctx context.Context, src ReportSource) ([]transcript.RawAttempt, error) {
	ctx, span := tracer.Start(ctx, "Harvest")
	defer span.End()

	sections, err := src.Sections(ctx)
	if err != nil {
		return nil, err
	}

	var attempts []transcript.RawAttempt
	for _, section := range sections {
		for _, block := range section.Blocks {
			creditText := ""
			scorable := false
			for _, line := range block.Annotations {
				if credit := ExtractCreditWeight(line); credit != transcript.NoValue {
					creditText = credit
				}
				if strings.Contains(line, finalLectureMarker) {
					scorable = true
				}
			}
			if !scorable {
				continue
			}

			if block.Title == "" {
				slog.WarnContext(
					ctx, "scorable sub-block missing its title, skipping",
					"section", section.Name,
				)
				continue
			}
			if block.GradeLine == "" {
				slog.WarnContext(
					ctx, "scorable sub-block missing its grade element, skipping",
					"section", section.Name,
					"title", block.Title,
				)
				continue
			}

			attempts = append(attempts, transcript.RawAttempt{
				CourseID:   ExtractCourseID(block.Title),
				GradeText:  ExtractGrade(block.GradeLine),
				CreditText: creditText,
			})
		}
	}

	span.SetAttributes(attribute.Int("attempts", len(attempts)))
	return attempts, nil
}

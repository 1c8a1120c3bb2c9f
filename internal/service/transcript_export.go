package service

import (
	"fmt"

	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/pkg/config"
	"github.com/uni-dcs/records-api/pkg/export"
)

var transcriptHeaders = []string{"Code", "Title", "Unit", "Semester", "CA", "Exam", "Total", "Grade", "Point"}

// BuildTranscriptDocument lays a transcript out as an export document,
// one section per academic session.
func BuildTranscriptDocument(t *models.Transcript, cfg config.TranscriptsConfig) export.Document {
	meta := [][2]string{
		{"Name", t.Student.FullName},
		{"Email", t.Student.Email},
	}
	if t.Student.Student != nil {
		meta = append(meta,
			[2]string{"Matric No", t.Student.Student.MatricNo},
			[2]string{"Level", fmt.Sprintf("%d", t.Student.Student.Level)},
		)
		if t.Student.Student.Program != "" {
			meta = append(meta, [2]string{"Program", t.Student.Student.Program})
		}
	}
	meta = append(meta, [2]string{"Generated", t.GeneratedAt.Format("2006-01-02 15:04 MST")})

	doc := export.Document{
		Title:    cfg.Institution,
		Subtitle: fmt.Sprintf("%s - Academic Transcript", cfg.Department),
		Meta:     meta,
		Headers:  transcriptHeaders,
		Summary: []string{
			fmt.Sprintf("CGPA: %.2f", t.CGPA),
			fmt.Sprintf("Classification: %s", t.Classification),
		},
	}

	for _, session := range t.Sessions {
		section := export.Section{
			Caption: fmt.Sprintf("Session %s (%d Level)", session.Session, session.Level),
			Footer: []string{
				fmt.Sprintf("GPA: %.2f  Credits: %d", session.GPA, session.TotalCredits),
			},
		}
		for _, entry := range session.Entries {
			section.Rows = append(section.Rows, []string{
				entry.CourseCode,
				entry.CourseTitle,
				fmt.Sprintf("%d", entry.CreditUnit),
				string(entry.Semester),
				fmt.Sprintf("%.1f", entry.CA),
				fmt.Sprintf("%.1f", entry.Exam),
				fmt.Sprintf("%.1f", entry.Total),
				string(entry.Grade),
				fmt.Sprintf("%.0f", entry.GradePoint),
			})
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

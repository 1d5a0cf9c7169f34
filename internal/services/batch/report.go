package batch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"
)

// RenderReport writes a PDF summary of aggregated batch results. One page of
// campaign totals followed by a section per recipient.
func RenderReport(w io.Writer, results *Results) error {
	logger.Base().Info("generating batch report",
		zap.String("job_id", results.JobID),
		zap.Int("recipients", results.TotalRecipients))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Times", "B", 16)
	title := results.JobName
	if title == "" {
		title = results.JobID
	}
	pdf.CellFormat(0, 10, fmt.Sprintf("Campaign Report: %s", title), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "", 12)
	summaryLines := []string{
		fmt.Sprintf("Job ID: %s", results.JobID),
		fmt.Sprintf("Status: %s", statusLabel(results.Status)),
		fmt.Sprintf("Total recipients: %d", results.TotalRecipients),
		fmt.Sprintf("Completed calls: %d", results.CompletedCalls),
		fmt.Sprintf("Failed calls: %d", results.FailedCalls),
	}
	for _, line := range summaryLines {
		pdf.CellFormat(0, 7, line, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	for _, record := range results.Records {
		pdf.SetFont("Times", "B", 13)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s (%s)", record.PhoneNumber, record.Status), "", 1, "", false, 0, "")

		pdf.SetFont("Times", "", 11)
		if record.ConversationID != "" {
			pdf.CellFormat(0, 6, fmt.Sprintf("Conversation: %s", record.ConversationID), "", 1, "", false, 0, "")
		}
		if record.DurationSeconds > 0 {
			pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %ds", record.DurationSeconds), "", 1, "", false, 0, "")
		}
		if record.ExtractedData != nil {
			if wants, ok := record.ExtractedData["wants_appointment"].(bool); ok && wants {
				detail := appointmentSummary(record.ExtractedData)
				pdf.CellFormat(0, 6, detail, "", 1, "", false, 0, "")
			}
		}
		if len(record.Transcript) > 0 {
			var b strings.Builder
			for _, msg := range record.Transcript {
				fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(msg.Role), msg.Message)
			}
			pdf.MultiCell(0, 5, b.String(), "", "", false)
		}
		pdf.Ln(3)
	}

	pdf.SetFont("Times", "I", 8)
	pdf.SetY(-15)
	pdf.SetX(0)
	pdf.CellFormat(0, 10, fmt.Sprintf("Generated on %s", time.Now().Format("2006-01-02 15:04:05")), "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

func appointmentSummary(data map[string]interface{}) string {
	parts := []string{"Appointment requested"}
	if date, ok := data["appointment_date"].(string); ok && date != "" {
		parts = append(parts, "on "+date)
	}
	if t, ok := data["appointment_time"].(string); ok && t != "" {
		parts = append(parts, "at "+t)
	}
	if purpose, ok := data["purpose"].(string); ok && purpose != "" {
		parts = append(parts, fmt.Sprintf("(%s)", purpose))
	}
	return strings.Join(parts, " ")
}

package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
)

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

var EmailClient *BrevoService

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func InitEmailService() {
	apiKey := config.Config("BREVO_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.Config("EMAIL_SENDER_NAME")

	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Println("⚠️ Email service not configured. Missing API Key, Sender Email, or Sender Name.")
		EmailClient = nil
		return
	}

	EmailClient = &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
	}
	log.Println("✅ Email service initialized successfully.")
}

func (s *BrevoService) send(toEmail, toName, subject, htmlContent string) error {
	url := "https://api.brevo.com/v3/smtp/email"

	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Printf("Brevo API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return fmt.Errorf("failed to send email via Brevo: status %d", resp.StatusCode)
	}

	return nil
}

// SendEmail is fire-and-forget: failures are logged and never surfaced to
// the booking flow.
func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}

	if err := EmailClient.send(toEmail, toName, subject, htmlContent); err != nil {
		log.Printf("🔥 Failed to send email to %s: %v", toEmail, err)
		return
	}
}

func SendLessonBooked(studentName, studentEmail, teacherName, teacherEmail, subject string, start time.Time) {
	when := start.Format("Mon, 02 Jan 2006 15:04 MST")
	SendEmail(studentName, studentEmail, "Your Lesson is Booked!",
		fmt.Sprintf("<h1>Lesson Booked</h1><p>Your %s lesson on %s is confirmed. You will receive your join code shortly.</p>", subject, when))
	SendEmail(teacherName, teacherEmail, "You Have a New Lesson!",
		fmt.Sprintf("<h1>New Lesson</h1><p>A student has booked a %s lesson with you on %s.</p>", subject, when))
}

func SendLessonCancelled(studentName, studentEmail, teacherName, teacherEmail string, start time.Time) {
	when := start.Format("Mon, 02 Jan 2006 15:04 MST")
	SendEmail(studentName, studentEmail, "Your Lesson Was Cancelled",
		fmt.Sprintf("<h1>Lesson Cancelled</h1><p>Your lesson on %s has been cancelled and your credits refunded.</p>", when))
	SendEmail(teacherName, teacherEmail, "A Lesson Was Cancelled",
		fmt.Sprintf("<h1>Lesson Cancelled</h1><p>The lesson on %s has been cancelled.</p>", when))
}

func SendLessonRescheduled(studentName, studentEmail, teacherName, teacherEmail string, newStart time.Time) {
	when := newStart.Format("Mon, 02 Jan 2006 15:04 MST")
	SendEmail(studentName, studentEmail, "Your Lesson Was Rescheduled",
		fmt.Sprintf("<h1>Lesson Rescheduled</h1><p>Your lesson now starts on %s.</p>", when))
	SendEmail(teacherName, teacherEmail, "A Lesson Was Rescheduled",
		fmt.Sprintf("<h1>Lesson Rescheduled</h1><p>A lesson was moved to %s. Please confirm the new time from your dashboard.</p>", when))
}

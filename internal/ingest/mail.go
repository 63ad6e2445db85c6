package ingest

import (
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

// DefaultMailDuration is how long answering one message is assumed to take.
const DefaultMailDuration = 10 * time.Minute

// MailLoader reads an mbox digest. Each message with a Subject and Date
// becomes an activity ending at the Date header.
type MailLoader struct {
	opts Options
}

func (l *MailLoader) Load(r io.Reader) ([]activity.Activity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading mailbox: %w", err)
	}
	loc := l.opts.location()
	logger := l.opts.logger()
	dec := new(mime.WordDecoder)

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	chunks := strings.Split(text, "\nFrom ")

	var activities []activity.Activity
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		// Drop the envelope line; Split already ate "From " for all but the first.
		if i > 0 || strings.HasPrefix(chunk, "From ") {
			_, rest, _ := strings.Cut(chunk, "\n")
			chunk = rest
		}

		msg, err := mail.ReadMessage(strings.NewReader(chunk))
		if err != nil {
			logger.Debug("skipping unreadable message", "index", i, "error", err)
			continue
		}
		subject := strings.TrimSpace(msg.Header.Get("Subject"))
		if subject == "" {
			continue
		}
		sent, err := msg.Header.Date()
		if err != nil {
			logger.Debug("skipping message without date", "index", i, "subject", subject)
			continue
		}
		if decoded, err := dec.DecodeHeader(subject); err == nil {
			subject = decoded
		}

		a := activity.Activity{
			ID:       newID(activity.SourceMail),
			Title:    subject,
			Start:    sent.Add(-DefaultMailDuration).In(loc),
			End:      sent.In(loc),
			Location: "Email",
			Source:   activity.SourceMail,
		}
		if from := msg.Header.Get("From"); from != "" {
			a.Description = "From: " + from
		}
		activities = append(activities, a)
	}
	return activities, nil
}

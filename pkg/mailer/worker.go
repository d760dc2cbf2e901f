package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

// ErrBadJob marks a job that can never be delivered and must not be requeued.
var ErrBadJob = errors.New("bad email job")

// Handle decodes one queued job, renders its template if any, and sends it.
// Errors wrapping ErrBadJob are permanent; anything else is worth a retry.
func Handle(ctx context.Context, s Sender, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		data, err := mailtpl.FromMap(job.Data)
		if err != nil {
			return fmt.Errorf("%w: data: %v", ErrBadJob, err)
		}
		if data.Email == "" {
			data.Email = job.To
		}
		subject, text, html, err = mailtpl.Render(job.Template, data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
	}

	return s.Send(ctx, job.To, subject, text, html)
}

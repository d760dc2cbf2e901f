package application

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

const (
	welcomeTemplate        = mailtpl.Welcome
	accountDeletedTemplate = mailtpl.AccountDeleted
)

// notify enqueues a templated email about u. Failures are logged only.
func (s *Service) notify(ctx context.Context, template string, u *entity.User) {
	if s.Jobs == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data: mailtpl.ToMap(mailtpl.EmailData{
			Name:        u.Username,
			Email:       u.Email,
			AppName:     s.Mail.AppName,
			CompanyName: s.Mail.CompanyName,
			SupportURL:  s.Mail.SupportURL,
			TimeAt:      s.now().UTC(),
		}),
	}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		helpers.LogWarn(s.Logger, "enqueue email failed", err, logrus.Fields{"user_id": u.ID, "template": template})
	}
}

// UploadAvatar stores the image under avatars/<id>/ and points the user's Image at it.
func (s *Service) UploadAvatar(ctx context.Context, id string, r io.Reader, filename, contentType string) (string, error) {
	if id == "" {
		return "", invalidArg(msgNoID)
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", wrapKind(ErrUnavailable, "Avatar storage is not configured", nil)
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil || u == nil || u.Deleted {
		return "", wrapKind(ErrNotFound, msgNoUser, err)
	}

	objectPath := helpers.AvatarObjectPath(id, uuid.NewString(), filename)
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		helpers.LogError(s.Logger, "avatar upload failed", err, logrus.Fields{"user_id": id, "object": objectPath})
		return "", wrapKind(ErrStoreFailure, "Could not upload avatar", err)
	}

	u.Image = url
	if err := s.Repo.Update(ctx, u); err != nil {
		helpers.LogError(s.Logger, "avatar: save failed", err, logrus.Fields{"user_id": id})
		return "", wrapKind(ErrStoreFailure, msgCouldNotSave, err)
	}
	s.indexUser(ctx, u)
	return url, nil
}

type userDoc struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Image     string `json:"image,omitempty"`
	Deleted   bool   `json:"deleted"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// indexUser upserts u into the search index. Failures are logged only.
func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	b, _ := json.Marshal(userDoc{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Image:     u.Image,
		Deleted:   u.Deleted,
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339Nano),
	})
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		helpers.LogWarn(s.Logger, "es index failed", err, logrus.Fields{"user_id": u.ID})
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers runs a multi_match over email and username, skipping deleted users.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" || strings.TrimSpace(q) == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"email^2", "username"},
					},
				},
				"must_not": map[string]any{
					"term": map[string]any{"deleted": true},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, wrapKind(ErrUnavailable, "Search is unavailable", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		helpers.LogWarn(s.Logger, "es search response error", nil, logrus.Fields{"status": res.Status()})
		return nil, wrapKind(ErrUnavailable, "Search is unavailable", nil)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

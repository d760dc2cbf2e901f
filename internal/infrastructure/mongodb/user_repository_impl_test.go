package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

func TestDocumentMapping(t *testing.T) {
	oid := bson.NewObjectID()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &entity.User{
		ID: oid.Hex(), Email: "a@b.co", Username: "ab", Hash: "h", Salt: "s",
		Image: "img", Deleted: true, CreatedAt: at, UpdatedAt: at,
	}

	doc, err := toDocument(u)
	require.NoError(t, err)
	assert.Equal(t, oid, doc.ID)
	assert.Equal(t, u, doc.toEntity())
}

func TestDocumentMappingNewUser(t *testing.T) {
	doc, err := toDocument(&entity.User{Email: "a@b.co"})
	require.NoError(t, err)
	assert.True(t, doc.ID.IsZero())
}

func TestParseIDRejectsMalformed(t *testing.T) {
	_, err := parseID("not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrInvalidID)

	_, err = toDocument(&entity.User{ID: "zzz"})
	assert.ErrorIs(t, err, repository.ErrInvalidID)
}

func TestFilterDoc(t *testing.T) {
	assert.Equal(t, bson.M{}, filterDoc(repository.UserFilter{}))

	yes, no := true, false
	assert.Equal(t, bson.M{"deleted": true}, filterDoc(repository.UserFilter{Deleted: &yes}))
	assert.Equal(t, bson.M{"deleted": false}, filterDoc(repository.UserFilter{Deleted: &no}))
}

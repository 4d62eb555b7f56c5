package models_test

import (
	"reflect"
	"testing"

	"bazaar/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{Name: "Olena", Role: models.RoleUser}

	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Name: "Taras"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
}

// TestUserStructTags catches accidental tag removal on the columns the store relies on.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "_id", idField.Tag.Get("bson"))

	standing, found := userType.FieldByName("Standing")
	assert.True(t, found)
	assert.Contains(t, standing.Tag.Get("gorm"), "embedded", "standing columns live on the users table")

	tg, found := userType.FieldByName("TelegramChatID")
	assert.True(t, found)
	assert.Equal(t, "-", tg.Tag.Get("json"), "chat ids are never rendered to clients")
}

func TestUserSummary(t *testing.T) {
	u := &models.User{ID: "u1", Name: "Iryna", Role: models.RoleAdmin}
	assert.Equal(t, models.UserSummary{ID: "u1", Name: "Iryna"}, u.Summary())
}

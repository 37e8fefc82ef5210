package todo

import (
	"time"

	"github.com/gogotex/todo-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Todo is the persistent todo record.
type Todo struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty" yaml:"-"`
	Name        string             `json:"name" bson:"name" yaml:"name" validate:"required"`
	NameAr      string             `json:"name_ar" bson:"name_ar" yaml:"name_ar" validate:"required"`
	Description string             `json:"description,omitempty" bson:"description,omitempty" yaml:"description"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at,omitempty" yaml:"-"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty" bson:"updated_at,omitempty" yaml:"-"`
	IsActive    bool               `json:"is_active" bson:"is_active" yaml:"-"`
}

// Changes is the input of update, remove and restore. Nil fields are left
// untouched.
type Changes struct {
	ID          string  `json:"_id" bson:"-"`
	Name        *string `json:"name,omitempty" bson:"name,omitempty" validate:"omitnil,min=1"`
	NameAr      *string `json:"name_ar,omitempty" bson:"name_ar,omitempty" validate:"omitnil,min=1"`
	Description *string `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty" bson:"is_active,omitempty"`
}

// PatchID implements repository.Patch.
func (c *Changes) PatchID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Schema describes the todo collection.
var Schema = repository.Schema{
	Name:   "todo",
	Unique: []string{"name", "name_ar"},
}

// Repository is the todo repository.
type Repository = repository.Repository[Todo, *Changes]

// NewRepository returns a todo repository over store.
func NewRepository(store repository.Store, opts ...repository.Option) *Repository {
	return repository.New[Todo, *Changes](store, Schema, opts...)
}

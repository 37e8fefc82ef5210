package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/internal/respond"
	"github.com/gogotex/todo-service/internal/todo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const resource = "todo"

// Context codes identify the call site in internal error codes.
const (
	codeCreate = 101
	codeRead   = 201
	codeUpdate = 301
	codeRemove = 401
)

// Handler serves the /todo.* routes.
type Handler struct {
	repo *todo.Repository
}

func New(repo *todo.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register mounts the todo routes on r. Every route answers 200 with an
// envelope body.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/todo.create", h.create)
	r.GET("/todo.info", h.info)
	r.GET("/todo.search", h.search)
	r.POST("/todo.update", h.update)
	r.POST("/todo.remove", h.remove)
	r.POST("/todo.restore", h.restore)
}

type createRequest struct {
	Name        string `json:"name"`
	NameAr      string `json:"name_ar"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := bindBody(c, &req); err != nil {
		c.JSON(http.StatusOK, respond.Do(func() (*todo.Todo, error) { return nil, err }, codeCreate, resource))
		return
	}
	env := respond.Do(func() (*todo.Todo, error) {
		return h.repo.Create(c.Request.Context(), &todo.Todo{
			Name:        req.Name,
			NameAr:      req.NameAr,
			Description: req.Description,
		})
	}, codeCreate, resource)
	c.JSON(http.StatusOK, env)
}

func (h *Handler) info(c *gin.Context) {
	if id, ok := c.GetQuery("_id"); ok {
		c.JSON(http.StatusOK, respond.Do(func() (*todo.Todo, error) {
			return h.repo.FindByID(c.Request.Context(), id)
		}, codeRead, resource))
		return
	}

	env := respond.Do(func() (*repository.Listing[todo.Todo], error) {
		opts, err := listOptions(c)
		if err != nil {
			return nil, err
		}
		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			if err := bson.UnmarshalExtJSON([]byte(q), false, &filter); err != nil {
				return nil, fmt.Errorf("parse filter: %w", err)
			}
			if raw, ok := filter[repository.FieldID].(string); ok {
				id, err := castID(raw)
				if err != nil {
					return nil, err
				}
				filter[repository.FieldID] = id
			}
		}
		return h.repo.FindAll(c.Request.Context(), opts, filter, c.Query("sort_by"))
	}, codeRead, resource)
	c.JSON(http.StatusOK, env)
}

func (h *Handler) search(c *gin.Context) {
	c.JSON(http.StatusOK, respond.Do(func() ([]todo.Todo, error) {
		filter := bson.M{}
		for key, vals := range c.Request.URL.Query() {
			if len(vals) == 0 {
				continue
			}
			v, err := queryValue(key, vals[0])
			if err != nil {
				return nil, err
			}
			filter[key] = v
		}
		return h.repo.Find(c.Request.Context(), filter)
	}, codeRead, resource))
}

func (h *Handler) update(c *gin.Context) {
	h.change(c, codeUpdate, h.repo.Update)
}

func (h *Handler) remove(c *gin.Context) {
	h.change(c, codeRemove, h.repo.Remove)
}

func (h *Handler) restore(c *gin.Context) {
	h.change(c, codeRemove, h.repo.Restore)
}

func (h *Handler) change(c *gin.Context, code int, apply func(context.Context, *todo.Changes) (*todo.Todo, error)) {
	var in todo.Changes
	if err := bindBody(c, &in); err != nil {
		c.JSON(http.StatusOK, respond.Do(func() (*todo.Todo, error) { return nil, err }, code, resource))
		return
	}
	if in.ID == "" {
		c.JSON(http.StatusOK, respond.Fail(respond.MissingID(resource, "id")))
		return
	}
	c.JSON(http.StatusOK, respond.Do(func() (*todo.Todo, error) {
		return apply(c.Request.Context(), &in)
	}, code, resource))
}

// bindBody decodes a JSON body. An empty body leaves dst untouched.
func bindBody(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func listOptions(c *gin.Context) (repository.ListOptions, error) {
	var opts repository.ListOptions
	var err error
	if v := c.Query("limit"); v != "" {
		if opts.Limit, err = strconv.ParseInt(v, 10, 64); err != nil {
			return opts, fmt.Errorf("parse limit: %w", err)
		}
	}
	if v := c.Query("page"); v != "" {
		if opts.Page, err = strconv.ParseInt(v, 10, 64); err != nil {
			return opts, fmt.Errorf("parse page: %w", err)
		}
	}
	opts.Sort = c.Query("sort")
	return opts, nil
}

// queryValue casts a query parameter to the stored type of its field:
// _id to an ObjectId, is_active to a boolean. Other parameters stay strings.
func queryValue(key, raw string) (any, error) {
	switch key {
	case repository.FieldID:
		return castID(raw)
	case repository.FieldActive:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
	}
	return raw, nil
}

func castID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return id, fmt.Errorf("cast %q to ObjectId: %w", raw, err)
	}
	return id, nil
}

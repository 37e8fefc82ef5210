package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the OpenAPI endpoints for the todo service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>todo-service - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Every /todo.* route answers 200; failures are reported in the envelope.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "todo-service", "version": "v1" },
  "components": {
    "schemas": {
      "Todo": { "type": "object", "properties": {
        "_id": {"type":"string"}, "name": {"type":"string"}, "name_ar": {"type":"string"},
        "description": {"type":"string"}, "created_at": {"type":"string","format":"date-time"},
        "updated_at": {"type":"string","format":"date-time"}, "is_active": {"type":"boolean"} } },
      "Changes": { "type": "object", "required": ["_id"], "properties": {
        "_id": {"type":"string"}, "name": {"type":"string"}, "name_ar": {"type":"string"},
        "description": {"type":"string"}, "is_active": {"type":"boolean"} } },
      "Envelope": { "type": "object", "properties": {
        "ok": {"type":"boolean"},
        "data": {"type":"object","properties":{"todo":{"type":"array","items":{}}}},
        "error": {"type":"string","example":"module.not_existing"},
        "details": {"type":"object","additionalProperties":{"type":"object"}} } }
    }
  },
  "paths": {
    "/todo.create": {
      "post": { "summary": "Create a todo", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"name_ar":{"type":"string"},"description":{"type":"string"}}}}}}, "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/todo.info": {
      "get": { "summary": "Get one todo by _id, or list active todos", "parameters": [
        {"name":"_id","in":"query","schema":{"type":"string"}},
        {"name":"limit","in":"query","schema":{"type":"integer"}},
        {"name":"page","in":"query","schema":{"type":"integer"}},
        {"name":"sort","in":"query","schema":{"type":"string"},"description":"sort document, e.g. {\"name\":1}"},
        {"name":"sort_by","in":"query","schema":{"type":"string"},"description":"ascending sort field for unpaginated lists"},
        {"name":"q","in":"query","schema":{"type":"string"},"description":"filter as extended JSON"}
      ], "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/todo.search": {
      "get": { "summary": "Find todos by field equality, soft-deleted included", "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/todo.update": {
      "post": { "summary": "Update a todo", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Changes"}}}}, "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/todo.remove": {
      "post": { "summary": "Soft-delete a todo", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Changes"}}}}, "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/todo.restore": {
      "post": { "summary": "Restore a soft-deleted todo", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Changes"}}}}, "responses": { "200": { "description": "envelope", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Envelope"}}} } } }
    },
    "/": { "get": { "summary": "Service status and version", "responses": { "200": { "description": "running" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`

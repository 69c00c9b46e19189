// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.authRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input or email taken"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.authRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "invalid credentials"}}
            }
        },
        "/questions": {
            "get": {
                "tags": ["questions"],
                "summary": "Latest published questions",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/question.Question"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["questions"],
                "summary": "Create a question with its choices",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.createQuestionRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "validation error"}, "401": {"description": "unauthorized"}}
            }
        },
        "/questions/{id}": {
            "get": {
                "tags": ["questions"],
                "summary": "Question with choices and direct follow-ups",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            }
        },
        "/questions/{id}/results": {
            "get": {
                "tags": ["questions"],
                "summary": "Vote totals and percentages",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            }
        },
        "/questions/{id}/vote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["votes"],
                "summary": "Vote for a choice",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.voteRequest"}}
                ],
                "responses": {"303": {"description": "See Other"}, "400": {"description": "no choice selected"}, "404": {"description": "question or choice not found"}, "429": {"description": "rate limited"}}
            }
        },
        "/questions/{id}/branches": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["followups"],
                "summary": "Branch a follow-up off a question",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.followUpRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "404": {"description": "question not found"}}
            }
        },
        "/choices/{id}/paths": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["followups"],
                "summary": "Follow a choice into a follow-up",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.followUpRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "404": {"description": "choice not found"}}
            }
        },
        "/followups/{id}": {
            "get": {
                "tags": ["followups"],
                "summary": "Follow-up with its choices and replies",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            }
        },
        "/followups/{id}/replies": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["followups"],
                "summary": "Reply to a follow-up",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.followUpRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/followups/{id}/vote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["votes"],
                "summary": "Vote for a follow-up choice",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.voteRequest"}}
                ],
                "responses": {"303": {"description": "See Other"}, "400": {"description": "no choice selected"}}
            }
        }
    },
    "definitions": {
        "api.authRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "api.createQuestionRequest": {
            "type": "object",
            "properties": {"question_text": {"type": "string"}, "choices": {"type": "array", "items": {"type": "string"}}}
        },
        "api.followUpRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}, "choices": {"type": "array", "items": {"type": "string"}}}
        },
        "api.voteRequest": {
            "type": "object",
            "properties": {"choice_id": {"type": "integer"}}
        },
        "question.Question": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "question_text": {"type": "string"},
                "author": {"type": "integer"},
                "pub_date": {"type": "string"},
                "path_count": {"type": "integer"},
                "branches": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Polls API",
	Description:      "Questions, choices and the follow-up threads that branch from them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

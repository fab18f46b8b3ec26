// Package docs holds the generated swagger document served at /swagger/*.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "Posts by the viewer and everyone they follow, newest first, with replies attached",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Home timeline",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/explore/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Every post, 25 per page",
                "parameters": [
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ExplorePage"}}}
            }
        },
        "/signup/": {
            "post": {
                "description": "Registers a user and their profile, signs them in and redirects to the timeline",
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password1", "in": "formData", "required": true},
                    {"type": "string", "description": "Password confirmation", "name": "password2", "in": "formData", "required": true},
                    {"type": "string", "description": "Bio", "name": "bio", "in": "formData"},
                    {"type": "file", "description": "Avatar image", "name": "avatar", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accounts/login/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Path to continue to", "name": "next", "in": "query"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/account/delete/": {
            "post": {
                "description": "Checks the password, removes the user and everything they own, and ends the session",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Permanently delete the signed-in account",
                "parameters": [
                    {"type": "string", "description": "Current password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/u/{username}/": {
            "get": {
                "description": "Profile, follower counts, whether the viewer follows the user, and the user's posts",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "View a profile",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/u/{username}/follow/": {
            "post": {
                "description": "Idempotent. Following yourself changes nothing and reports a message.",
                "tags": ["users"],
                "summary": "Follow a user",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true},
                    {"type": "string", "description": "Path to continue to", "name": "next", "in": "query"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/post/create/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "tags": ["posts"],
                "summary": "Publish a post",
                "parameters": [
                    {"type": "string", "description": "Markdown body", "name": "body", "in": "formData"},
                    {"type": "file", "description": "Image", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/post/{id}/edit/": {
            "post": {
                "description": "Only the author may edit. A new image replaces the old one; clear_image removes it.",
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "tags": ["posts"],
                "summary": "Edit a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Markdown body", "name": "body", "in": "formData"},
                    {"type": "file", "description": "Image", "name": "image", "in": "formData"},
                    {"type": "boolean", "description": "Remove the current image", "name": "clear_image", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/post/{id}/reply/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["posts"],
                "summary": "Reply to a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Reply text", "name": "body", "in": "formData", "required": true}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/post/{id}/{action}/": {
            "post": {
                "description": "like and dislike toggle the viewer's reaction; share records a share. Other actions are ignored.",
                "tags": ["posts"],
                "summary": "Like, dislike or share a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "like, dislike or share", "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/snippets/create/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["snippets"],
                "summary": "Share a code snippet",
                "parameters": [
                    {"type": "string", "description": "Title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Language, python by default", "name": "language", "in": "formData"},
                    {"type": "string", "description": "Source code", "name": "code", "in": "formData", "required": true}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "service.ExplorePage": {
            "type": "object",
            "properties": {
                "has_next": {"type": "boolean"},
                "has_previous": {"type": "boolean"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "posts": {"type": "array", "items": {"type": "object"}},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token. Browsers use the session cookie instead.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "devcentral API",
	Description:      "Developer social network: posts, replies, reactions, follows and code snippets",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

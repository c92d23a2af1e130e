// Package devauth holds the Swagger document for the development auth API.
// Regenerate it with `go generate ./internal/devauth/http` after changing
// the handler annotations.
package devauth

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
        "/api/admin/get_users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.usersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.TokenErrorResponse"}},
                    "403": {"description": "Forbidden - requires Admin or Owner role", "schema": {"$ref": "#/definitions/http.TokenErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Checks a username and password and returns an access token, a refresh token and the user.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.loginResponse"}},
                    "400": {"description": "Missing username or password", "schema": {"$ref": "#/definitions/http.MessageResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/http.MessageResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/http.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.MessageResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "Logout successful", "schema": {"$ref": "#/definitions/http.MessageResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Verifies the bearer access token and returns the account it was issued for.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.UserView"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.TokenErrorResponse"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Exchanges the bearer refresh token for a new access token carrying the same profile claims.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.refreshResponse"}},
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/http.TokenErrorResponse"}},
                    "422": {"description": "Only refresh tokens are allowed", "schema": {"$ref": "#/definitions/http.TokenErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.MessageResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Always returns 200 OK while the service is running",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/httpx.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "all checks ok", "schema": {"$ref": "#/definitions/httpx.HealthResponse"}},
                    "503": {"description": "degraded, with the failing checks", "schema": {"$ref": "#/definitions/httpx.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "http.TokenErrorResponse": {
            "type": "object",
            "properties": {"msg": {"type": "string"}}
        },
        "http.UserView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "http.loginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "http.loginResponse": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "refresh": {"type": "string"},
                "user": {"$ref": "#/definitions/http.UserView"}
            }
        },
        "http.refreshResponse": {
            "type": "object",
            "properties": {"access": {"type": "string"}}
        },
        "http.usersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/http.UserView"}}
            }
        },
        "httpx.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access or refresh token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "SDA Portal Development Auth API",
	Description:      "Local stand-in for the SDA portal's auth backend. Issues EdDSA-signed access and refresh tokens for seeded users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

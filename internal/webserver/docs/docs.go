// Package docs holds the OpenAPI document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health/ping": {
            "get": {
                "tags": ["Health"],
                "summary": "liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ledgerapi.pingResponse"}}}
            }
        },
        "/users/login": {
            "post": {
                "tags": ["Users"],
                "summary": "log in with email and password",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.loginBody"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/users/register": {
            "post": {
                "tags": ["Users"],
                "summary": "register a new account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.registerBody"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "list users (admin)",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}}
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "get a user",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "rename a user",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.userBody"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "delete a user and their transactions",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/products": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "list products by name",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "create a product",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.productBody"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}}}
            }
        },
        "/products/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "get a product",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "update a product",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.productBody"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Products"],
                "summary": "delete a product and its transactions",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transactions"],
                "summary": "list transactions by date",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transactions"],
                "summary": "record a transaction for the caller",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.transactionBody"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Transaction"}}}
            }
        },
        "/transactions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transactions"],
                "summary": "get a transaction",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Transaction"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transactions"],
                "summary": "update a transaction",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ledgerapi.transactionBody"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Transaction"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transactions"],
                "summary": "delete a transaction",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "domain.EmbeddedRef": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}}
        },
        "domain.Product": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "price": {"type": "integer"}}
        },
        "domain.Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "amount": {"type": "integer"},
                "date": {"type": "string", "format": "date-time"},
                "user": {"$ref": "#/definitions/domain.EmbeddedRef"},
                "product": {"$ref": "#/definitions/domain.EmbeddedRef"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]}
            }
        },
        "domain.AuthResult": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/domain.User"}}
        },
        "ledgerapi.loginBody": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "ledgerapi.registerBody": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8, "maxLength": 30}
            }
        },
        "ledgerapi.userBody": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string", "maxLength": 255}}
        },
        "ledgerapi.productBody": {
            "type": "object",
            "required": ["name", "price"],
            "properties": {"name": {"type": "string", "maxLength": 255}, "price": {"type": "integer", "minimum": 1}}
        },
        "ledgerapi.transactionBody": {
            "type": "object",
            "required": ["amount", "date", "productId"],
            "properties": {
                "amount": {"type": "integer"},
                "date": {"type": "string", "format": "date-time"},
                "productId": {"type": "string", "format": "uuid"}
            }
        },
        "ledgerapi.pingResponse": {
            "type": "object",
            "properties": {"pong": {"type": "boolean"}}
        },
        "webserver.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {},
                "stack": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "ToughLedger API",
	Description:      "Users, products and the transactions between them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
